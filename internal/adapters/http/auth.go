package httpadapter

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/medwise/medwise-backend/internal/config"
	"github.com/medwise/medwise-backend/internal/core/domain"
)

type userContextKey struct{}

func userFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userContextKey{}).(string)
	return userID
}

// requireUser resolves the acting user. In jwt mode a valid bearer token is mandatory;
// with auth disabled the user_id query parameter is trusted and may be empty.
func (rt *Router) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := rt.resolveUser(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, r, err)
			return
		}
		if info := requestInfoFromContext(r.Context()); info != nil {
			info.userID = userID
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userContextKey{}, userID)))
	}
}

func (rt *Router) resolveUser(r *http.Request) (string, error) {
	if rt.cfg.AuthMode == config.AuthModeDisabled {
		return strings.TrimSpace(r.URL.Query().Get("user_id")), nil
	}
	if rt.svc.Accounts == nil {
		return "", domain.WrapError(domain.ErrUnauthorized, "authenticate", errors.New("authentication is not configured"))
	}
	return rt.svc.Accounts.Authenticate(r.Context(), bearerToken(r.Header.Get("Authorization")))
}

func bearerToken(headerValue string) string {
	headerValue = strings.TrimSpace(headerValue)
	if len(headerValue) < len("Bearer ") || !strings.EqualFold(headerValue[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(headerValue[len("Bearer "):])
}
