package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/hoverspeak/internal/workspace"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

// Sessions attaches the visitor's workspace to every request.
//
// WHAT IS MIDDLEWARE?
// A middleware takes an http.Handler and returns a new one that runs some
// code before (and possibly after) the wrapped handler. chi chains them:
// req → RequestID → Logger → Sessions → handler. Sessions runs before
// every page and API route, so handlers can simply call
// workspace.FromContext and trust the result.
//
// THE FOUR CASES:
//
//  1. No cookie, or one that fails validation (bad signature, expired,
//     wrong issuer). The visitor gets a brand-new workspace and a cookie
//     pointing at it.
//  2. Valid cookie, workspace in the store. The normal case: attach it.
//  3. Valid cookie, workspace NOT in the store. The server restarted or the
//     janitor swept it. The token still proves the id was issued to this
//     browser, so the workspace is recreated, signed out, under the same id.
//     Ads saved under that id become visible again after signing in.
//  4. Valid cookie past half its lifetime. Same as 2 or 3, plus a fresh
//     token, so an active visitor never hits the hard expiry.
//
// COOKIE FLAGS:
// HttpOnly keeps the token away from page scripts, and SameSite=Lax stops
// other sites from POSTing forms (logout, create ad) with it attached.
func Sessions(tokens *TokenService, store *workspace.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws, session, ok := lookupWorkspace(r, tokens, store, logger)

			// Case 1: start over with a fresh id.
			if !ok {
				ws = store.Create()
				if !setSessionCookie(w, tokens, ws.ID(), logger) {
					return
				}
				logger.Debug("workspace created", slog.String("workspaceID", ws.ID()))
			} else if time.Until(session.ExpiresAt) < tokens.TTL()/2 {
				// Case 4: sliding expiry. Re-issuing on every request would
				// add a Set-Cookie header to every response, so only do it
				// once the token is half used.
				if !setSessionCookie(w, tokens, ws.ID(), logger) {
					return
				}
				logger.Debug("session token refreshed", slog.String("workspaceID", ws.ID()))
			}

			next.ServeHTTP(w, r.WithContext(workspace.NewContext(r.Context(), ws)))
		})
	}
}

// lookupWorkspace resolves the request's cookie to a workspace, recreating
// it when the token is valid but the store no longer has it. ok is false
// only when there is no usable token.
func lookupWorkspace(r *http.Request, tokens *TokenService, store *workspace.Store, logger *slog.Logger) (*workspace.Workspace, Session, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, Session{}, false
	}
	session, err := tokens.Validate(cookie.Value)
	if err != nil {
		logger.Debug("session token rejected", slog.String("error", err.Error()))
		return nil, Session{}, false
	}

	if ws, ok := store.Get(session.WorkspaceID); ok {
		return ws, session, true
	}

	// Case 3: the signature proves we issued this id, so it is safe to
	// bring it back.
	ws := store.CreateWithID(session.WorkspaceID)
	logger.Info("workspace restored", slog.String("workspaceID", ws.ID()))
	return ws, session, true
}

// setSessionCookie issues a token for id and writes it as the session
// cookie. On failure it writes a 500 and returns false.
func setSessionCookie(w http.ResponseWriter, tokens *TokenService, id string, logger *slog.Logger) bool {
	token, err := tokens.Generate(id)
	if err != nil {
		logger.Error("issuing session token", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return false
	}

	// MaxAge matches the token's lifetime, so the browser drops the cookie
	// at about the time the server would start rejecting it.
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}
