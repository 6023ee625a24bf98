package middleware

import (
	"context"
	"net/http"

	"gstvault/internal/common"
	"gstvault/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// PermissionPolicy decides whether a principal may perform an action. Two
// implementations exist: AllowAll (the current pass-through) and an
// RBAC-backed policy. Which one runs is a startup configuration choice, so
// the eventual RBAC cut-over is a config change with no code-path risk.
type PermissionPolicy interface {
	Allow(ctx context.Context, userID, businessID uuid.UUID, permission string) (bool, error)
}

type AllowAllPolicy struct{}

func (AllowAllPolicy) Allow(ctx context.Context, userID, businessID uuid.UUID, permission string) (bool, error) {
	return true, nil
}

// RBACPolicy resolves permissions through role assignments in the store.
type RBACPolicy struct {
	db repositories.Database
}

func NewRBACPolicy(db repositories.Database) *RBACPolicy {
	return &RBACPolicy{db: db}
}

func (p *RBACPolicy) Allow(ctx context.Context, userID, businessID uuid.UUID, permission string) (bool, error) {
	var count int
	query := `
		SELECT COUNT(1)
		FROM user_roles ur
		JOIN role_permissions rp ON rp.role_id = ur.role_id
		JOIN permissions perm ON perm.id = rp.permission_id
		WHERE ur.user_id = $1 AND ur.business_id = $2 AND perm.name = $3
	`
	if err := p.db.QueryRow(ctx, query, userID, businessID, permission).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// NewPermissionPolicy selects the policy by mode: "rbac" or anything else
// (pass-through).
func NewPermissionPolicy(mode string, db repositories.Database) PermissionPolicy {
	if mode == "rbac" {
		return NewRBACPolicy(db)
	}
	return AllowAllPolicy{}
}

type PermissionMiddleware struct {
	policy PermissionPolicy
}

func NewPermissionMiddleware(policy PermissionPolicy) *PermissionMiddleware {
	return &PermissionMiddleware{policy: policy}
}

func (m *PermissionMiddleware) RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			userID, ok := common.GetUserIDFromContext(ctx)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			businessID, ok := common.GetBusinessIDFromContext(ctx)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Business not found")
			}

			allowed, err := m.policy.Allow(ctx, userID, businessID, permission)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Error checking permission")
			}
			if !allowed {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}
