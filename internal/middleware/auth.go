package middleware

import (
	"net/http"
	"strings"

	"quill/internal/db"
	"quill/internal/models"

	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"

// LoadUser resolves the Authorization bearer token to a user and sets it on
// the context. Runs on every request; public endpoints just ignore it.
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header != "" {
			key, ok := strings.CutPrefix(header, "Bearer ")
			if ok {
				key = strings.TrimSpace(key)
				var token models.Token
				if err := db.DB.Where("key = ?", key).First(&token).Error; err == nil {
					var user models.User
					if err := db.DB.First(&user, token.UserID).Error; err == nil {
						c.Set(CheckUserKey, &user)
					}
				}
			}
		}
		c.Next()
	}
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CheckUserKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication credentials were not provided"})
			return
		}
		c.Next()
	}
}
