package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/identity"
	"github.com/frahmantamala/expense-approval/internal/transport"
)

// RBACAuthorization gates routes on the caller's company role.
type RBACAuthorization struct {
	*transport.BaseHandler
	logger *slog.Logger
}

func NewRBACAuthorization(baseHandler *transport.BaseHandler, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: baseHandler,
		logger:      logger,
	}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, roles ...identity.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity.FromContext(r.Context())
		if !ok {
			ra.logger.Warn("authorization check failed: identity not found in context")
			ra.HandleServiceError(w, r, internal.ErrUnauthenticated)
			return
		}

		for _, role := range roles {
			if caller.Role == role {
				next.ServeHTTP(w, r)
				return
			}
		}

		ra.logger.WarnContext(r.Context(), "access denied: insufficient role",
			"user_id", caller.UserID,
			"role", caller.Role,
			"required_roles", roles)
		ra.HandleServiceError(w, r, internal.ErrUnauthorizedAccess)
	}
}

func (ra *RBACAuthorization) RequireRoles(roles ...identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, roles...)
	}
}

// RequireManager admits managers and admins.
func (ra *RBACAuthorization) RequireManager() func(http.Handler) http.Handler {
	return ra.RequireRoles(identity.RoleManager, identity.RoleAdmin)
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequireRoles(identity.RoleAdmin)
}
