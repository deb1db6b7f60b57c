package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/foyerhq/foyer-server/internal/model"
	"github.com/foyerhq/foyer-server/internal/service"
)

const (
	SessionCookie = "foyer_session"
	SessionMaxAge = 7 * 24 * time.Hour
)

type contextKey string

const UserContextKey contextKey = "user"

// GetUser returns the authenticated user from the request context, or nil
// when the request is unauthenticated.
func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

// SessionMiddleware resolves the session cookie to a user and gates routes
// by role.
type SessionMiddleware struct {
	auth *service.AuthService
}

func NewSessionMiddleware(auth *service.AuthService) *SessionMiddleware {
	return &SessionMiddleware{auth: auth}
}

// RequireUser rejects requests without a valid session.
func (m *SessionMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.resolve(w, r)
		if !ok {
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects requests without a valid admin session.
func (m *SessionMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.resolve(w, r)
		if !ok {
			return
		}

		if user.Role != model.RoleAdmin {
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error": "Forbidden",
			})
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *SessionMiddleware) resolve(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
		return nil, false
	}

	user, err := m.auth.ValidateSession(r.Context(), cookie.Value)
	if err != nil {
		log.Error().Err(err).Msg("session middleware: database error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Session validation failed",
		})
		return nil, false
	}

	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
		return nil, false
	}

	return user, true
}

func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
