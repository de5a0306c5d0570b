package handlers

import (
	"net/http"
	"strings"

	"quill/internal/apperr"
	"quill/internal/db"
	"quill/internal/models"
	"quill/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct{}

func NewCommentHandler() *CommentHandler {
	return &CommentHandler{}
}

type commentRequest struct {
	Content *string `json:"content"`
}

// List returns every comment on a post, oldest first. Public, unpaginated.
func (h *CommentHandler) List(c *gin.Context) {
	postID := uint(utils.StringToInt(c.Param("id")))

	var post models.Post
	if err := db.DB.First(&post, postID).Error; err != nil {
		RespondError(c, apperr.NotFound("post"))
		return
	}

	var comments []models.Comment
	if err := db.DB.Preload("User").
		Where("post_id = ?", post.ID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

// Create adds a comment by the caller. Content is the only required field.
func (h *CommentHandler) Create(c *gin.Context) {
	user := MustUser(c)
	postID := uint(utils.StringToInt(c.Param("id")))

	var post models.Post
	if err := db.DB.First(&post, postID).Error; err != nil {
		RespondError(c, apperr.NotFound("post"))
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Validation("body", "invalid request body"))
		return
	}
	if req.Content == nil || strings.TrimSpace(*req.Content) == "" {
		RespondError(c, apperr.Validation("content", "This field is required."))
		return
	}

	comment := models.Comment{
		PostID:  post.ID,
		UserID:  user.ID,
		Content: *req.Content,
	}
	if err := db.DB.Create(&comment).Error; err != nil {
		RespondError(c, err)
		return
	}
	db.DB.Preload("User").First(&comment, comment.ID)

	invalidatePostCache(post.ID)
	c.JSON(http.StatusCreated, comment)
}

// Update edits the caller's own comment; updated_at refreshes on save.
func (h *CommentHandler) Update(c *gin.Context) {
	user := MustUser(c)
	commentID := uint(utils.StringToInt(c.Param("id")))

	var comment models.Comment
	if err := db.DB.First(&comment, commentID).Error; err != nil {
		RespondError(c, apperr.NotFound("comment"))
		return
	}
	if comment.UserID != user.ID {
		RespondError(c, apperr.Permission("you do not have permission to modify this comment"))
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Validation("body", "invalid request body"))
		return
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			RespondError(c, apperr.Validation("content", "This field is required."))
			return
		}
		comment.Content = *req.Content
	}

	if err := db.DB.Save(&comment).Error; err != nil {
		RespondError(c, err)
		return
	}
	db.DB.Preload("User").First(&comment, comment.ID)

	invalidatePostCache(comment.PostID)
	c.JSON(http.StatusOK, comment)
}

// Delete removes the caller's own comment.
func (h *CommentHandler) Delete(c *gin.Context) {
	user := MustUser(c)
	commentID := uint(utils.StringToInt(c.Param("id")))

	var comment models.Comment
	if err := db.DB.First(&comment, commentID).Error; err != nil {
		RespondError(c, apperr.NotFound("comment"))
		return
	}
	if comment.UserID != user.ID {
		RespondError(c, apperr.Permission("you do not have permission to delete this comment"))
		return
	}

	if err := db.DB.Delete(&comment).Error; err != nil {
		RespondError(c, err)
		return
	}

	invalidatePostCache(comment.PostID)
	c.Status(http.StatusNoContent)
}
