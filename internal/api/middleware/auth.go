package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// OwnerIDKey is the key used to store the authenticated owner ID in the context
	OwnerIDKey = "owner_id"

	authorizationHeader = "Authorization"
)

// Claims carries the owner identity extracted from the bearer token. The
// owner_id claim takes precedence; the registered subject claim is accepted
// as a fallback for tokens minted by the platform's identity service.
type Claims struct {
	OwnerID string `json:"owner_id"`
	jwt.RegisteredClaims
}

// Auth validates the bearer token and stores the owner identity in the
// request context. Every request is resolved to exactly one owner; requests
// without a valid identity never reach the ledger.
func Auth(secret string) gin.HandlerFunc {
	secretBytes := []byte(secret)

	return func(c *gin.Context) {
		authHeader := c.GetHeader(authorizationHeader)
		if authHeader == "" {
			unauthorized(c, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "Invalid authorization header format")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secretBytes, nil
		})
		if err != nil || !token.Valid {
			unauthorized(c, "Invalid or expired token")
			return
		}

		ownerID := claims.OwnerID
		if ownerID == "" {
			ownerID = claims.Subject
		}
		if ownerID == "" {
			unauthorized(c, "Token carries no owner identity")
			return
		}

		c.Set(OwnerIDKey, ownerID)
		c.Next()
	}
}

// GetOwnerID retrieves the authenticated owner ID from the gin context
func GetOwnerID(c *gin.Context) (string, bool) {
	id, exists := c.Get(OwnerIDKey)
	if !exists {
		return "", false
	}
	ownerID, ok := id.(string)
	return ownerID, ok && ownerID != ""
}

func unauthorized(c *gin.Context, message string) {
	response := gin.H{
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, response)
}
