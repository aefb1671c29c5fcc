package httpadapter

import (
	"net/http"

	"github.com/medwise/medwise-backend/internal/config"
	"github.com/medwise/medwise-backend/internal/core/domain"
)

func (rt *Router) signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := rt.svc.Accounts.Signup(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (rt *Router) login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := rt.svc.Accounts.Login(r.Context(), creds)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// logout is stateless: bearer tokens are dropped by the client.
func (rt *Router) logout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (rt *Router) me(w http.ResponseWriter, r *http.Request) {
	user, err := rt.svc.Accounts.Profile(r.Context(), userFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (rt *Router) checkAuth(w http.ResponseWriter, r *http.Request) {
	if rt.cfg.AuthMode == config.AuthModeDisabled {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "user_id": r.URL.Query().Get("user_id")})
		return
	}

	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "message": "No authorization header"})
		return
	}
	userID, err := rt.svc.Accounts.Authenticate(r.Context(), token)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "message": "Invalid or expired token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "user_id": userID})
}
