package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"quill/internal/apperr"
	"quill/internal/models"
	"quill/internal/services"
	"quill/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 5
	maxPageSize     = 50
)

type PostHandler struct{}

func NewPostHandler() *PostHandler {
	return &PostHandler{}
}

type postRequest struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
	Status   *string   `json:"status"`
}

func (r postRequest) toInput() services.PostInput {
	return services.PostInput{
		Title:    r.Title,
		Content:  r.Content,
		Category: r.Category,
		Tags:     r.Tags,
		Status:   r.Status,
	}
}

// postDetail is the single-post payload: the post plus its markdown content
// rendered to sanitized HTML.
type postDetail struct {
	models.Post
	ContentHTML template.HTML `json:"content_html"`
}

func detailCacheKey(postID uint) string {
	return fmt.Sprintf("post:detail:%d", postID)
}

func invalidatePostCache(postID uint) {
	utils.GetCache().Delete(detailCacheKey(postID))
}

// List returns one page of posts in the pagination envelope. Authenticated
// callers get their own posts (drafts included), anonymous callers get
// published posts only.
func (h *PostHandler) List(c *gin.Context) {
	page := 1
	if p := c.Query("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}
	pageSize := defaultPageSize
	if s := c.Query("page_size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			pageSize = n
			if pageSize > maxPageSize {
				pageSize = maxPageSize
			}
		}
	}

	posts, total, err := services.ListPosts(CurrentUser(c), page, pageSize)
	if err != nil {
		RespondError(c, err)
		return
	}

	var next, previous interface{}
	if int64(page*pageSize) < total {
		next = pageURL(c, page+1)
	}
	if page > 1 {
		previous = pageURL(c, page-1)
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    total,
		"next":     next,
		"previous": previous,
		"results":  posts,
	})
}

// pageURL rebuilds the request URL with a different page number.
func pageURL(c *gin.Context, page int) string {
	u := *c.Request.URL
	q, _ := url.ParseQuery(u.RawQuery)
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// Create stores a new draft owned by the caller.
func (h *PostHandler) Create(c *gin.Context) {
	user := MustUser(c)

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Validation("body", "invalid request body"))
		return
	}

	post, err := services.CreatePost(user, req.toInput())
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// Detail returns one post. Published posts are served from the shared cache
// (the payload is identical for every caller); drafts are never cached and
// only visible to their author.
func (h *PostHandler) Detail(c *gin.Context) {
	postID := uint(utils.StringToInt(c.Param("id")))

	cacheKey := detailCacheKey(postID)
	if cached := utils.GetCache().Get(cacheKey); cached != nil {
		if payload, ok := cached.(postDetail); ok {
			c.JSON(http.StatusOK, payload)
			return
		}
	}

	post, err := services.GetPost(postID, CurrentUser(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	payload := postDetail{
		Post:        *post,
		ContentHTML: utils.RenderMarkdown(post.Content),
	}
	if post.Published() {
		utils.GetCache().Set(cacheKey, payload, 1*time.Minute)
	}

	c.JSON(http.StatusOK, payload)
}

// Update handles PUT (full) updates.
func (h *PostHandler) Update(c *gin.Context) {
	h.update(c, false)
}

// PartialUpdate handles PATCH updates; absent fields stay untouched.
func (h *PostHandler) PartialUpdate(c *gin.Context) {
	h.update(c, true)
}

func (h *PostHandler) update(c *gin.Context, partial bool) {
	user := MustUser(c)
	postID := uint(utils.StringToInt(c.Param("id")))

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Validation("body", "invalid request body"))
		return
	}

	post, err := services.UpdatePost(postID, user, req.toInput(), partial)
	if err != nil {
		RespondError(c, err)
		return
	}

	invalidatePostCache(post.ID)
	c.JSON(http.StatusOK, post)
}

// Delete removes the caller's post and everything hanging off it.
func (h *PostHandler) Delete(c *gin.Context) {
	user := MustUser(c)
	postID := uint(utils.StringToInt(c.Param("id")))

	if err := services.DeletePost(postID, user); err != nil {
		RespondError(c, err)
		return
	}

	invalidatePostCache(postID)
	c.Status(http.StatusNoContent)
}

// Publish transitions a draft to published.
func (h *PostHandler) Publish(c *gin.Context) {
	user := MustUser(c)
	postID := uint(utils.StringToInt(c.Param("id")))

	post, err := services.PublishPost(postID, user)
	if err != nil {
		RespondError(c, err)
		return
	}

	invalidatePostCache(post.ID)
	c.JSON(http.StatusOK, post)
}

// ToggleLike flips the caller's like and reports the new state.
func (h *PostHandler) ToggleLike(c *gin.Context) {
	user := MustUser(c)
	postID := uint(utils.StringToInt(c.Param("id")))

	liked, count, err := services.ToggleLike(postID, user)
	if err != nil {
		RespondError(c, err)
		return
	}

	invalidatePostCache(postID)
	c.JSON(http.StatusOK, gin.H{"liked": liked, "like_count": count})
}
