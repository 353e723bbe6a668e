package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sidlawliet/whiteroom-mentor/internal/auth"
	"github.com/sidlawliet/whiteroom-mentor/internal/common"
	"github.com/sidlawliet/whiteroom-mentor/internal/observability"
)

const IdentityKey = "identity"

// AuthRequired accepts "Authorization: Bearer <jwt>" and stores the token
// subject under IdentityKey.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			common.Fail(c, http.StatusUnauthorized, 40101, "missing authorization header")
			return
		}
		scheme, token, found := strings.Cut(h, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			common.Fail(c, http.StatusUnauthorized, 40102, "invalid authorization header")
			return
		}

		identity, err := auth.ParseJWT(strings.TrimSpace(token), secret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40103, "invalid or expired token")
			return
		}

		c.Set(IdentityKey, identity)
		c.Request = c.Request.WithContext(observability.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

func IdentityFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
