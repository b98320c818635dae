package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys populated by jwtAuthMiddleware.
const (
	ctxUserID   = "userId"
	ctxUsername = "username"
	ctxRole     = "role"
)

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortError(c, http.StatusUnauthorized, kindUnauthenticated, "missing or invalid Authorization header")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			abortError(c, http.StatusUnauthorized, kindUnauthenticated, "invalid token")
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortError(c, http.StatusUnauthorized, kindUnauthenticated, "invalid claims")
			return
		}
		sub, ok := claims["sub"].(float64)
		if !ok {
			abortError(c, http.StatusUnauthorized, kindUnauthenticated, "invalid claims")
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set(ctxUserID, uint(sub))
		c.Set(ctxUsername, username)
		c.Set(ctxRole, role)
		c.Next()
	}
}

// requireRoles gates a route on the caller's role. Each route enumerates its
// own allowed roles; ADMIN gets no implicit bypass.
func requireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		if !allowed[currentRole(c)] {
			abortError(c, http.StatusForbidden, kindForbidden, "Forbidden")
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint {
	if v, ok := c.Get(ctxUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func currentUsername(c *gin.Context) string {
	return c.GetString(ctxUsername)
}

func currentRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}
