package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTPErrorResponse represents the JSON body returned for failed requests.
type HTTPErrorResponse struct {
	Error    string         `json:"error"`
	Category string         `json:"category"`
	Details  map[string]any `json:"details,omitempty"`
}

// HTTPErrorAdapter converts errors into HTTP responses.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates a new HTTP error adapter.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// StatusCodeFor maps an error's category to an HTTP status code.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	switch GetCategory(err) {
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes a JSON error body with the mapped status code.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := a.StatusCodeFor(err)
	resp := HTTPErrorResponse{
		Error:    err.Error(),
		Category: string(GetCategory(err)),
	}
	if classified, ok := AsClassified(err); ok && len(classified.Context()) > 0 {
		resp.Details = classified.Context()
	}

	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("category", resp.Category),
			slog.String("error", resp.Error))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		a.logger.Error("failed to encode error response", slog.String("error", encErr.Error()))
	}
}
