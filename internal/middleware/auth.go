package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity is the verified {userId, role} pair attached to each request.
// Handlers trust it and never re-verify credentials.
type Identity struct {
	UserID primitive.ObjectID
	Name   string
	Email  string
	Role   string
}

// IsAdmin is the single capability check used for admin-only operations.
func (id Identity) IsAdmin() bool {
	return id.Role == "admin"
}

const identityKey = "identity"

// RequireUser validates the bearer token and injects the Identity into
// the context.
func RequireUser(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := identityFromHeader(c.GetHeader("Authorization"), secret)
		if err != nil {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireAdmin validates the bearer token and rejects non-admin roles.
func RequireAdmin(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := identityFromHeader(c.GetHeader("Authorization"), secret)
		if err != nil {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// IdentityFrom returns the verified identity injected by RequireUser or
// RequireAdmin.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := value.(Identity)
	return identity, ok
}

func identityFromHeader(header, secret string) (Identity, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return Identity{}, jwt.ErrTokenMalformed
	}

	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Identity{}, jwt.ErrTokenMalformed
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid {
		return Identity{}, jwt.ErrTokenUnverifiable
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}

	userIDValue, ok := claims["userId"].(string)
	if !ok || strings.TrimSpace(userIDValue) == "" {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}
	userID, err := primitive.ObjectIDFromHex(userIDValue)
	if err != nil {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}

	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return Identity{
		UserID: userID,
		Name:   name,
		Email:  email,
		Role:   role,
	}, nil
}
