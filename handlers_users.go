package main

import (
	"errors"
	"net/http"
	"strings"

	"ccportal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func listUsersHandler(c *gin.Context) {
	q := db.Model(&models.User{}).Order("username")
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "query failed")
		return
	}
	c.JSON(http.StatusOK, users)
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// createUserHandler provisions a staff account. Role defaults to DO and
// the password to a well-known initial value the admin is expected to
// rotate.
func createUserHandler(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "username is required")
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleDO
	}
	if !models.ValidRole(role) {
		abortError(c, http.StatusBadRequest, kindValidation, "Unknown role")
		return
	}
	password := req.Password
	if password == "" {
		password = "password123"
	}
	hash, err := hashPassword(password)
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "could not hash password")
		return
	}

	var cnt int64
	db.Model(&models.User{}).Where("username = ?", req.Username).Count(&cnt)
	if cnt > 0 {
		abortError(c, http.StatusBadRequest, kindValidation, "Username already exists")
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "Username already exists")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "username": user.Username, "role": user.Role})
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
}

func updateUserHandler(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "invalid payload")
		return
	}
	if req.Username == nil && req.Email == nil && req.Role == nil {
		abortError(c, http.StatusBadRequest, kindValidation, "Nothing to update")
		return
	}
	if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
		abortError(c, http.StatusBadRequest, kindValidation, "username cannot be empty")
		return
	}
	if req.Role != nil && !models.ValidRole(*req.Role) {
		abortError(c, http.StatusBadRequest, kindValidation, "Unknown role")
		return
	}

	var user models.User
	err := db.First(&user, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		abortError(c, http.StatusNotFound, kindNotFound, "User not found")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "query failed")
		return
	}

	updates := map[string]any{}
	if req.Username != nil && *req.Username != user.Username {
		var cnt int64
		db.Model(&models.User{}).
			Where("username = ? AND id <> ?", *req.Username, user.ID).
			Count(&cnt)
		if cnt > 0 {
			abortError(c, http.StatusBadRequest, kindValidation, "Username already exists")
			return
		}
		updates["username"] = *req.Username
	}
	if req.Email != nil && *req.Email != user.Email {
		updates["email"] = *req.Email
	}
	if req.Role != nil && *req.Role != user.Role {
		updates["role"] = *req.Role
	}
	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{"updated": 0})
		return
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "could not update user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": 1})
}

type resetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

func resetPasswordHandler(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "password is required")
		return
	}
	var user models.User
	err := db.First(&user, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		abortError(c, http.StatusNotFound, kindNotFound, "User not found")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "query failed")
		return
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "could not hash password")
		return
	}
	if err := db.Model(&user).Update("password_hash", hash).Error; err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "could not reset password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": 1, "message": "Password reset"})
}

// deleteUserHandler removes the account only. Complaints assigned to the
// user keep their assigned_to value; log entries keep their author id and
// render with a null user.
func deleteUserHandler(c *gin.Context) {
	var user models.User
	err := db.First(&user, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		abortError(c, http.StatusNotFound, kindNotFound, "User not found")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "query failed")
		return
	}
	if err := db.Delete(&user).Error; err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "could not delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": 1, "message": "User deleted"})
}
