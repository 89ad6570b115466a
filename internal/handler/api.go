package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/hoverspeak/internal/model"
	"github.com/sakif/hoverspeak/internal/service"
	"github.com/sakif/hoverspeak/internal/workspace"
)

// APIHandler is the JSON view of the same workspace the pages render.
type APIHandler struct {
	accounts *service.AccountService
	ads      *service.AdService
	logger   *slog.Logger
}

func NewAPIHandler(accounts *service.AccountService, ads *service.AdService, logger *slog.Logger) *APIHandler {
	return &APIHandler{accounts: accounts, ads: ads, logger: logger}
}

// SessionResponse describes the visitor's workspace.
type SessionResponse struct {
	View    workspace.View `json:"view"`
	User    *model.User    `json:"user"`
	Playing string         `json:"playing,omitempty"`

	// Account is only present for visitors who signed up through the
	// registration form.
	Account *model.Account `json:"account,omitempty"`
}

// PlaybackResponse carries the ad playing after a toggle, "" when none.
type PlaybackResponse struct {
	Playing string `json:"playing"`
}

// HandleSession: GET /api/session
func (h *APIHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	st := ws.Snapshot()
	account, err := h.accounts.Account(r.Context(), ws)
	if err != nil {
		h.logFailure("loading account", ws, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{
		View:    st.View,
		User:    st.User,
		Playing: st.Playing,
		Account: account,
	})
}

// HandleListAds: GET /api/ads
func (h *APIHandler) HandleListAds(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	ads, err := h.ads.List(r.Context(), ws)
	if err != nil {
		h.logFailure("listing advertisements", ws, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ads)
}

// HandleMetrics: GET /api/metrics
func (h *APIHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	stats, err := h.ads.Metrics(r.Context(), ws)
	if err != nil {
		h.logFailure("computing metrics", ws, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandlePlayback: POST /api/ads/{id}/playback
func (h *APIHandler) HandlePlayback(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	playing, err := h.ads.TogglePlayback(r.Context(), ws, chi.URLParam(r, "id"))
	if err != nil {
		h.logFailure("toggling playback", ws, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PlaybackResponse{Playing: playing})
}

// HandleHealth: GET /healthz
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) logFailure(msg string, ws *workspace.Workspace, err error) {
	if status, _ := statusFor(err); status < http.StatusInternalServerError {
		h.logger.Debug(msg, slog.String("workspaceID", ws.ID()), slog.String("error", err.Error()))
		return
	}
	h.logger.Error(msg, slog.String("workspaceID", ws.ID()), slog.String("error", err.Error()))
}
