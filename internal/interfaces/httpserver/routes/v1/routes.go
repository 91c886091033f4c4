package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/janhq/media-janitor/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under the /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")

	tasks := group.Group("/tasks")
	tasks.GET("", r.handlers.Tasks.List)
	tasks.GET("/:id", r.handlers.Tasks.Get)
	tasks.PATCH("/:id", r.handlers.Tasks.Update)
	tasks.POST("/:id/run", r.handlers.Tasks.Run)

	group.POST("/gc/preview", r.handlers.GC.Preview)

	group.POST("/media", r.handlers.Media.Upload)
	group.POST("/media/mark-used", r.handlers.Media.MarkUsed)
	group.POST("/media/associate", r.handlers.Media.Associate)

	posts := group.Group("/posts")
	posts.POST("", r.handlers.Posts.Create)
	posts.GET("/:id", r.handlers.Posts.Get)
	posts.POST("/:id/comments", r.handlers.Posts.AddComment)
	posts.DELETE("/:id", r.handlers.Posts.Delete)
}
