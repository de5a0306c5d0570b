package handlers

import (
	"math"
	"net/http"

	"quill/internal/apperr"
	"quill/internal/services"
	"quill/internal/utils"

	"github.com/gin-gonic/gin"
)

type RatingHandler struct{}

func NewRatingHandler() *RatingHandler {
	return &RatingHandler{}
}

type rateRequest struct {
	// float64 so a fractional value fails our integer check instead of the
	// JSON decoder, which keeps the error field-attributed.
	Value *float64 `json:"value"`
}

// Rate upserts the caller's rating and returns the recomputed average.
func (h *RatingHandler) Rate(c *gin.Context) {
	user := MustUser(c)
	postID := uint(utils.StringToInt(c.Param("id")))

	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Validation("body", "invalid request body"))
		return
	}
	if req.Value == nil {
		RespondError(c, apperr.Validation("value", "This field is required."))
		return
	}
	if *req.Value != math.Trunc(*req.Value) {
		RespondError(c, apperr.Validation("value", "Rating must be an integer between 1 and 5."))
		return
	}

	average, err := services.Rate(postID, user, int(*req.Value))
	if err != nil {
		RespondError(c, err)
		return
	}

	invalidatePostCache(postID)
	c.JSON(http.StatusOK, gin.H{"value": int(*req.Value), "average_rating": average})
}
