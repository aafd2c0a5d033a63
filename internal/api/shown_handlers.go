package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/bookwormapp/bookworm-server/internal/errors"
)

func (s *Server) registerShownRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listShown",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/shown",
		Summary:     "List shown recommendations",
		Description: "Returns the IDs of previously surfaced recommendations in insertion order",
		Tags:        []string{"Shown"},
	}, s.handleListShown)

	huma.Register(s.api, huma.Operation{
		OperationID: "addShown",
		Method:      http.MethodPost,
		Path:        "/api/v1/library/shown",
		Summary:     "Record shown recommendations",
		Description: "Unions the given recommendation IDs into the shown set",
		Tags:        []string{"Shown"},
	}, s.handleAddShown)

	huma.Register(s.api, huma.Operation{
		OperationID:   "clearShown",
		Method:        http.MethodDelete,
		Path:          "/api/v1/library/shown",
		Summary:       "Clear shown recommendations",
		Description:   "Empties the shown set so past recommendations can surface again",
		Tags:          []string{"Shown"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleClearShown)
}

// ShownResponse contains the shown-set contents.
type ShownResponse struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

// ShownOutput wraps the shown response for Huma.
type ShownOutput struct {
	Body ShownResponse
}

// AddShownInput carries recommendation IDs to record as shown.
type AddShownInput struct {
	Body struct {
		IDs []string `json:"ids" minItems:"1" doc:"Recommendation IDs to record"`
	}
}

func (s *Server) handleListShown(_ context.Context, _ *struct{}) (*ShownOutput, error) {
	ids := s.library.Shown()
	return &ShownOutput{
		Body: ShownResponse{IDs: ids, Count: len(ids)},
	}, nil
}

func (s *Server) handleAddShown(_ context.Context, input *AddShownInput) (*ShownOutput, error) {
	if err := s.library.AddShown(input.Body.IDs); err != nil {
		s.logger.Error("failed to record shown IDs", "error", err)
		return nil, domainerrors.Internal("failed to record shown recommendations")
	}

	ids := s.library.Shown()
	return &ShownOutput{
		Body: ShownResponse{IDs: ids, Count: len(ids)},
	}, nil
}

func (s *Server) handleClearShown(_ context.Context, _ *struct{}) (*struct{}, error) {
	if err := s.library.ClearShown(); err != nil {
		s.logger.Error("failed to clear shown set", "error", err)
		return nil, domainerrors.Internal("failed to clear shown recommendations")
	}
	return &struct{}{}, nil
}
