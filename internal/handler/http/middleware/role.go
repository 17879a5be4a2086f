package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/user"
	"github.com/timekeep-hq/timekeep-backend-go/internal/handler/http/response"
)

// RequireAdmin requires the admin role
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, user.ErrPermissionDenied)
			return
		}

		role, ok := claims["role"].(string)
		if !ok || user.Role(role) != user.RoleAdmin {
			response.HandleError(w, user.ErrPermissionDenied)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireHR requires the hr or admin role
func RequireHR(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, user.ErrPermissionDenied)
			return
		}

		roleStr, ok := claims["role"].(string)
		if !ok {
			response.HandleError(w, user.ErrPermissionDenied)
			return
		}

		role := user.Role(roleStr)
		if role != user.RoleHR && role != user.RoleAdmin {
			response.HandleError(w, user.ErrPermissionDenied)
			return
		}

		next.ServeHTTP(w, r)
	})
}
