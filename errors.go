package main

import "github.com/gin-gonic/gin"

// Machine-readable error kinds surfaced alongside the human message.
const (
	kindValidation      = "VALIDATION"
	kindUnauthenticated = "UNAUTHENTICATED"
	kindForbidden       = "FORBIDDEN"
	kindNotFound        = "NOT_FOUND"
	kindStorage         = "STORAGE"
)

// abortError writes the uniform error body and stops the handler chain.
func abortError(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"kind": kind, "message": message})
}
