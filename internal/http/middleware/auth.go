package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ragvault/internal/http/response"
	"github.com/yungbote/ragvault/internal/platform/apierr"
	"github.com/yungbote/ragvault/internal/platform/logger"
	"github.com/yungbote/ragvault/internal/services"
)

// AdminVerifier checks a management token.
type AdminVerifier interface {
	Verify(token string) (*services.AdminClaims, error)
}

type AdminAuthMiddleware struct {
	log      *logger.Logger
	verifier AdminVerifier
}

func NewAdminAuthMiddleware(log *logger.Logger, verifier AdminVerifier) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{log: log.With("middleware", "AdminAuthMiddleware"), verifier: verifier}
}

// RequireAdmin rejects anything without a valid admin bearer token.
func (am *AdminAuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" || am.verifier == nil {
			response.RespondAPIError(c, am.log, apierr.Unauthenticated())
			return
		}
		claims, err := am.verifier.Verify(token)
		if err != nil {
			am.log.Debug("admin token rejected", "path", c.FullPath())
			response.RespondAPIError(c, am.log, apierr.Unauthenticated())
			return
		}
		c.Set("admin_subject", claims.Subject)
		c.Next()
	}
}

// BearerToken reads the credential from the Authorization header. Query
// parameters are never consulted; they end up in access logs.
func BearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
