package http

import (
	"context"
	"errors"
	"net/http"

	"financas/internal/core"
	"financas/internal/gateway"
	"financas/internal/log"
)

type (
	userKey  struct{}
	tokenKey struct{}
)

// requireUser resolves the bearer token to a user. Handlers behind it can
// rely on userFrom returning an identity with a non-empty id.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			ErrorResponse(http.StatusUnauthorized, "missing bearer token").Write(w)
			return
		}

		ctx := r.Context()
		user, err := s.deps.Auth.CurrentUser(ctx, token)
		switch {
		case errors.Is(err, gateway.ErrUnauthorized):
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			ErrorResponse(http.StatusUnauthorized, "invalid or expired token").Write(w)
			return
		case err != nil:
			log.FromContext(ctx).ErrorContext(ctx, "Authentication provider failed",
				log.FieldComponent, log.ComponentAuth, log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "authentication unavailable").Write(w)
			return
		case user.ID == "":
			ErrorResponse(http.StatusUnauthorized, "token has no user").Write(w)
			return
		}

		ctx = context.WithValue(ctx, userKey{}, user)
		ctx = context.WithValue(ctx, tokenKey{}, token)
		ctx = gateway.WithOwner(ctx, user.ID)
		ctx = log.IntoContext(ctx, log.FromContext(ctx).With(log.FieldOwnerID, user.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFrom(ctx context.Context) core.User {
	u, _ := ctx.Value(userKey{}).(core.User)
	return u
}

func ownerFrom(ctx context.Context) string {
	return userFrom(ctx).ID
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(userFrom(r.Context())).Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := r.Context().Value(tokenKey{}).(string)
	if err := s.deps.Auth.SignOut(r.Context(), token); err != nil {
		s.fail(w, r, "logout", err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
