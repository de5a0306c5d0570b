package handlers

import (
	"errors"
	"log"
	"net/http"

	"quill/internal/apperr"
	"quill/internal/middleware"
	"quill/internal/models"

	"github.com/gin-gonic/gin"
)

// CurrentUser returns the authenticated user, or nil on a public request.
func CurrentUser(c *gin.Context) *models.User {
	if user, exists := c.Get(middleware.CheckUserKey); exists {
		return user.(*models.User)
	}
	return nil
}

// MustUser returns the authenticated user; only call behind AuthRequired.
func MustUser(c *gin.Context) *models.User {
	return c.MustGet(middleware.CheckUserKey).(*models.User)
}

// RespondError maps the error taxonomy onto the status-code taxonomy.
// Validation failures carry their field-keyed messages; everything
// unrecognized is a 500 and gets logged.
func RespondError(c *gin.Context, err error) {
	var validationErr *apperr.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": validationErr.Fields})
		return
	}
	var authErr *apperr.AuthenticationError
	if errors.As(err, &authErr) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": authErr.Error()})
		return
	}
	var permErr *apperr.PermissionError
	if errors.As(err, &permErr) {
		c.JSON(http.StatusForbidden, gin.H{"error": permErr.Error()})
		return
	}
	var notFoundErr *apperr.NotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
		return
	}
	var conflictErr *apperr.ConflictError
	if errors.As(err, &conflictErr) {
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Error()})
		return
	}

	log.Printf("unhandled error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
