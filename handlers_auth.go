package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "username and password are required")
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		abortError(c, http.StatusUnauthorized, kindUnauthenticated, "Invalid credentials")
		return
	}
	token, err := issueToken(user)
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "failed to generate token")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
			"email":    user.Email,
		},
	})
}
