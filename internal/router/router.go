package router

import (
	"quill/internal/handlers"
	"quill/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	// Handlers
	authHandler := handlers.NewAuthHandler()
	postHandler := handlers.NewPostHandler()
	commentHandler := handlers.NewCommentHandler()
	ratingHandler := handlers.NewRatingHandler()
	categoryHandler := handlers.NewCategoryHandler()
	tagHandler := handlers.NewTagHandler()
	searchHandler := handlers.NewSearchHandler()

	api := r.Group("/api")
	api.Use(middleware.LoadUser())

	// Public routes
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)

	api.GET("/posts", postHandler.List) // own posts when authenticated, published otherwise
	api.GET("/posts/:id", postHandler.Detail)
	api.GET("/posts/:id/comments", commentHandler.List)
	api.GET("/search", searchHandler.Search)

	api.GET("/categories", categoryHandler.List)
	api.GET("/categories/:id/posts", categoryHandler.Posts) // numeric id or exact name
	api.GET("/tags", tagHandler.List)
	api.GET("/tags/:name/posts", tagHandler.Posts)
	api.GET("/authors/:username/posts", searchHandler.AuthorPosts)

	// Protected routes
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/posts", postHandler.Create)
		authorized.PUT("/posts/:id", postHandler.Update)
		authorized.PATCH("/posts/:id", postHandler.PartialUpdate)
		authorized.DELETE("/posts/:id", postHandler.Delete)
		authorized.POST("/posts/:id/publish", postHandler.Publish)
		authorized.POST("/posts/:id/like", postHandler.ToggleLike)
		authorized.POST("/posts/:id/rate", ratingHandler.Rate)

		authorized.POST("/posts/:id/comments", commentHandler.Create)
		authorized.PUT("/comments/:id", commentHandler.Update)
		authorized.DELETE("/comments/:id", commentHandler.Delete)

		authorized.POST("/categories", categoryHandler.Create)
		authorized.DELETE("/categories/:id", categoryHandler.Delete)
		authorized.POST("/tags", tagHandler.Create)
	}
}
