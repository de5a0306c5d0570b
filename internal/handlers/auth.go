package handlers

import (
	"net/http"
	"strings"

	"quill/internal/apperr"
	"quill/internal/db"
	"quill/internal/models"
	"quill/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new user account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Validation("body", "invalid request body"))
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Username) == "" {
		fields["username"] = "This field is required."
	}
	if !strings.Contains(req.Email, "@") {
		fields["email"] = "Enter a valid email address."
	}
	if len(req.Password) < 6 {
		fields["password"] = "Password must be at least 6 characters."
	}
	if len(fields) == 0 {
		var count int64
		db.DB.Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
		if count > 0 {
			fields["username"] = "A user with that username already exists."
		}
		db.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count)
		if count > 0 {
			fields["email"] = "A user with that email already exists."
		}
	}
	if len(fields) > 0 {
		RespondError(c, &apperr.ValidationError{Fields: fields})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hash,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login exchanges credentials for the user's opaque bearer token. The token
// is persisted; logging in again hands back the same key.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Validation("body", "invalid request body"))
		return
	}

	var user models.User
	if err := db.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		RespondError(c, apperr.Authentication("invalid username or password"))
		return
	}
	if !utils.CheckPasswordHash(req.Password, user.Password) {
		RespondError(c, apperr.Authentication("invalid username or password"))
		return
	}

	// Idempotent re-issue: one token row per user.
	var token models.Token
	if err := db.DB.Where("user_id = ?", user.ID).First(&token).Error; err != nil {
		token = models.Token{
			Key:    strings.ReplaceAll(uuid.NewString(), "-", ""),
			UserID: user.ID,
		}
		if err := db.DB.Create(&token).Error; err != nil {
			RespondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"token": token.Key, "user": user})
}
