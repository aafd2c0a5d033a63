package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/bookwormapp/bookworm-server/internal/errors"
)

func (s *Server) registerInstanceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getInstance",
		Method:      http.MethodGet,
		Path:        "/api/v1/instance",
		Summary:     "Get server instance",
		Description: "Returns the singleton server instance configuration",
		Tags:        []string{"Instance"},
	}, s.handleGetInstance)
}

// InstanceResponse contains server instance data in API responses.
type InstanceResponse struct {
	ID        string    `json:"id" doc:"Stable server instance ID"`
	Name      string    `json:"name" doc:"Display name of this server"`
	Version   string    `json:"version" doc:"Server version"`
	CreatedAt time.Time `json:"created_at" doc:"When this instance was first created"`
}

// InstanceOutput wraps the instance response for Huma.
type InstanceOutput struct {
	Body InstanceResponse
}

func (s *Server) handleGetInstance(_ context.Context, _ *struct{}) (*InstanceOutput, error) {
	if s.instance == nil {
		return nil, domainerrors.NotFound("server instance configuration not found")
	}

	return &InstanceOutput{
		Body: InstanceResponse{
			ID:        s.instance.ID,
			Name:      s.instance.Name,
			Version:   s.instance.Version,
			CreatedAt: s.instance.CreatedAt,
		},
	}, nil
}
