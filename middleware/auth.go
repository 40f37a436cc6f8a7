package middleware

import (
	"net/http"
	"strings"

	"orgalerts/utils"

	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key holding the caller's utils.Identity.
const IdentityKey = "identity"

// JWTAuthMiddleware validates the bearer token and stores the caller identity.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "unauthenticated", "Missing or invalid Authorization header", "")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		identity, err := utils.ExtractIdentity(tokenString)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "unauthenticated", "Invalid token", err.Error())
			return
		}

		c.Set(IdentityKey, identity)
		c.Set("userID", identity.UserID)
		c.Next()
	}
}

// GetIdentity returns the identity stored by JWTAuthMiddleware, or the zero
// identity when the request is unauthenticated.
func GetIdentity(c *gin.Context) utils.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if id, ok := v.(utils.Identity); ok {
			return id
		}
	}
	return utils.Identity{}
}
