package handlers

import (
	"net/http"

	"quill/internal/services"

	"github.com/gin-gonic/gin"
)

type SearchHandler struct{}

func NewSearchHandler() *SearchHandler {
	return &SearchHandler{}
}

// Search composes the supplied filters over published posts. Every
// parameter is optional; absent ones add no constraint.
func (h *SearchHandler) Search(c *gin.Context) {
	params := services.SearchParams{
		Query:         c.Query("q"),
		Author:        c.Query("author"),
		Category:      c.Query("category"),
		Tag:           c.Query("tag"),
		PublishedDate: c.Query("published_date"),
		Sort:          c.Query("sort"),
	}

	posts, err := services.SearchPosts(params)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

// AuthorPosts lists the published posts of one author by exact username.
func (h *SearchHandler) AuthorPosts(c *gin.Context) {
	posts, err := services.PostsByAuthor(c.Param("username"))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}
