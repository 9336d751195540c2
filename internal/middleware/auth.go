// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/i18n"
	"github.com/G-alileo/e-visa-application-system/internal/utils"
)

// AuthRequired resolves the Bearer token into a domain.Actor. Tokens are
// issued by the identity provider; this service only verifies them.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		actor, err := actorFromToken(parts[1])
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		c.Set(utils.ActorContextKey, actor)
		c.Set("user_id", actor.ID.String())
		c.Set("role", string(actor.Role))
		c.Next()
	}
}

// RoleRequired must run after AuthRequired.
func RoleRequired(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := utils.GetActorFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}
		if err := domain.RequireRole(actor, roles...); err != nil {
			utils.ServiceErrorResponse(c, err, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth sets the actor when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			if actor, err := actorFromToken(parts[1]); err == nil {
				c.Set(utils.ActorContextKey, actor)
				c.Set("user_id", actor.ID.String())
			}
		}
		c.Next()
	}
}

func actorFromToken(token string) (*domain.Actor, error) {
	claims, err := utils.ValidateJWT(token)
	if err != nil {
		return nil, err
	}
	return claims.Actor()
}
