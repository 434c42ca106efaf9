package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/pontoweb/ponto-backend-go/internal/domain/punch"
	"github.com/pontoweb/ponto-backend-go/internal/handler/http/response"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/jwt"
)

// RequireManager requires manager or admin role
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Forbidden(w, "Manager role required")
			return
		}

		role, ok := claims["role"].(string)
		if !ok || !jwt.CanManage(role) {
			response.Forbidden(w, "Manager role required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ActorFromRequest builds the workflow actor from the verified token. The
// engine never resolves roles itself; the claim is the capability.
func ActorFromRequest(r *http.Request) punch.Actor {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return punch.Actor{}
	}

	actor := punch.Actor{}
	if id, ok := claims["user_id"].(string); ok {
		actor.ID = id
	}
	if role, ok := claims["role"].(string); ok {
		actor.CanManage = jwt.CanManage(role)
	}
	return actor
}
