package api

import (
	"encoding/json/v2"
	"net"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is the wire version of the response envelope. Clients check
// it before parsing the rest of the payload.
const EnvelopeVersion = 1

// APIEnvelope wraps every response in a consistent structure.
// The version field is named exactly "v" - clients depend on it.
type APIEnvelope struct { //nolint:revive // API prefix matches APIError
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope wraps detailed errors that carry a machine-readable code.
type APIErrorEnvelope struct { //nolint:revive // API prefix matches APIError
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps all responses in the
// standard envelope format.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		if apiErr.Code != "" {
			return APIErrorEnvelope{
				Version: EnvelopeVersion,
				Success: false,
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: apiErr.Details,
			}, nil
		}
		return APIEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   apiErr.Message,
		}, nil
	}

	if err, ok := v.(error); ok {
		return APIEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   err.Error(),
		}, nil
	}

	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: strings.HasPrefix(status, "2"),
		Data:    v,
	}, nil
}

// recommendRateLimit throttles recommendation runs per client IP.
func (s *Server) recommendRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/api/v1/recommend" {
			if !s.recommendLimiter.Allow(clientKey(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.MarshalWrite(w, APIEnvelope{
					Version: EnvelopeVersion,
					Error:   "too many recommendation requests, try again shortly",
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
