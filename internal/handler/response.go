package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/hoverspeak/internal/apperror"
	"github.com/sakif/hoverspeak/internal/workspace"
)

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable kind, e.g. "not_found"
	Message string `json:"message"` // human-readable description
}

// writeJSON sends data as JSON. Headers and status go out before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a service error to an HTTP status and a JSON body.
// Errors that are not *apperror.AppError are reported as a generic 500.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, kind := statusFor(err)
		writeJSON(w, status, ErrorResponse{
			Error:   kind,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// flashMessage is the text shown to a visitor for a failed page action.
// Internal errors get a generic message.
func flashMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Something went wrong. Please try again."
}

// redirect sends a 303 so the browser follows up with a GET.
//
// POST/REDIRECT/GET:
// Every form post ends in a redirect instead of rendering a page. The
// browser's current entry is then a GET, so pressing refresh re-renders
// the page instead of asking to resubmit the form (and creating a second
// ad). 303 See Other is the status that always switches the method to GET;
// 302 only does so by browser convention.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// currentWorkspace returns the workspace the session middleware attached.
// It writes a 500 when there is none.
func currentWorkspace(w http.ResponseWriter, r *http.Request) (*workspace.Workspace, bool) {
	ws, ok := workspace.FromContext(r.Context())
	if !ok {
		slog.Error("request without workspace", slog.String("path", r.URL.Path))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return ws, true
}
