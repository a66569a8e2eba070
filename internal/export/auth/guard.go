package auth

import (
	"context"
	"net/http"

	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Authorizer interface {
	Authorize(ctx context.Context, userID uuid.UUID, resource models.Resource, action models.Action) (bool, error)
}

// Guard evaluates route permissions for authenticated users.
type Guard struct {
	authz  Authorizer
	logger *zap.Logger
}

func NewGuard(authz Authorizer, logger *zap.Logger) *Guard {
	return &Guard{authz: authz, logger: logger.Named("auth_guard")}
}

// Require lets the request through only when the caller may perform action
// on resource. It must run after Middleware.
func (g *Guard) Require(resource models.Resource, action models.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFromGin(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		allowed, err := g.authz.Authorize(c.Request.Context(), claims.UserID, resource, action)
		if err != nil {
			g.logger.Error("Failed to evaluate permission",
				zap.Error(err),
				zap.String("user_id", claims.UserID.String()),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if !allowed {
			g.logger.Info("Request denied",
				zap.String("user_id", claims.UserID.String()),
				zap.String("role_id", claims.RoleID.String()),
				zap.String("resource", string(resource)),
				zap.String("action", string(action)),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": e.ErrInvalidPermission.Error()})
			return
		}
		c.Next()
	}
}
