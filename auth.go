package main

import (
	"errors"
	"os"
	"strings"
	"time"

	"ccportal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// errInvalidCredentials is returned for both unknown usernames and wrong
// passwords so the response does not leak which check failed.
var errInvalidCredentials = errors.New("invalid credentials")

// Authenticate verifies a username/password pair against the store.
func Authenticate(username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return models.User{}, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return models.User{}, errInvalidCredentials
	}
	return user, nil
}

func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// issueToken signs a bearer token carrying {sub, role, username}. Tokens do
// not expire unless TOKEN_TTL is set to a Go duration (e.g. "24h").
func issueToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"role":     user.Role,
		"username": user.Username,
	}
	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			claims["exp"] = time.Now().Add(d).Unix()
		} else {
			logger.Warnf("ignoring invalid TOKEN_TTL %q: %v", ttl, err)
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}
