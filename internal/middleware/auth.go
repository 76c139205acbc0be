package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "user_id"

var errMissingToken = errors.New("authorization header required")

// Authenticate resolves the bearer token when one is sent. Requests without
// a token pass through anonymously; a bad token is rejected.
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := parseToken(c.GetHeader("Authorization"), secret)
		if errors.Is(err, errMissingToken) {
			c.Next()
			return
		}
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// AuthRequired rejects requests that Authenticate left anonymous.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, or zero for anonymous requests.
func UserID(c *gin.Context) uint {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func parseToken(header, secret string) (uint, error) {
	if header == "" {
		return 0, errMissingToken
	}

	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == header {
		return 0, errors.New("Bearer token required")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("Invalid token claims")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID < 1 {
		return 0, errors.New("Invalid user ID in token")
	}
	return uint(userID), nil
}
