package routes

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"aubot/aubot/utils/errs"
	"aubot/aubot/utils/logging"
	"aubot/aubot/utils/types"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type jsonHandler func(r *http.Request) (any, int, error)

// handleJSON writes the handler's result as JSON, or the error as
// {"success": false, "error": ...} with the status of its kind.
func handleJSON(fn jsonHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, status, err := fn(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, status, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logging.ErrorLogger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
		if status == http.StatusInternalServerError {
			msg = "internal server error"
		}
	}
	writeJSON(w, status, types.ErrorResponse{Success: false, Error: msg})
}

// decodeJSON reads a JSON body into v. Body problems are validation errors.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return errs.Validation("request body exceeds %d bytes", tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return errs.Validation("request body is empty")
		default:
			return errs.Validation("invalid JSON body: %v", err)
		}
	}
	return nil
}

func success(extra map[string]any) map[string]any {
	out := map[string]any{"success": true}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, errs.NotFound("no route for %s %s", r.Method, r.URL.Path))
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, types.ErrorResponse{Success: false, Error: "method not allowed"})
}
