package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/media-janitor/internal/domain/content"
	"github.com/janhq/media-janitor/internal/interfaces/httpserver/responses"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

type createPostRequest struct {
	AuthorID   string `json:"author_id" binding:"required"`
	Title      string `json:"title" binding:"required"`
	Content    string `json:"content"`
	CoverImage string `json:"cover_image"`
}

type createCommentRequest struct {
	AuthorID string   `json:"author_id" binding:"required"`
	Content  string   `json:"content"`
	Images   []string `json:"images"`
}

type postResponse struct {
	*content.Post
	Comments []*content.Comment `json:"comments"`
}

// PostHandler exposes posts, comments and the cascade delete.
type PostHandler struct {
	service *content.Service
	log     zerolog.Logger
}

func NewPostHandler(service *content.Service, log zerolog.Logger) *PostHandler {
	return &PostHandler{
		service: service,
		log:     log.With().Str("component", "post-handler").Logger(),
	}
}

func (h *PostHandler) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "post-create-body")
		return
	}
	post, err := h.service.CreatePost(c.Request.Context(), &content.Post{
		AuthorID:   req.AuthorID,
		Title:      req.Title,
		Content:    req.Content,
		CoverImage: req.CoverImage,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to create post")
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) AddComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "comment-create-body")
		return
	}
	comment, err := h.service.AddComment(c.Request.Context(), &content.Comment{
		PostID:   c.Param("id"),
		AuthorID: req.AuthorID,
		Content:  req.Content,
		Images:   req.Images,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to add comment")
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *PostHandler) Get(c *gin.Context) {
	post, comments, err := h.service.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get post")
		return
	}
	if comments == nil {
		comments = []*content.Comment{}
	}
	c.JSON(http.StatusOK, postResponse{Post: post, Comments: comments})
}

// Delete cascades to comments and embedded media. Deleting a missing post
// reports found=false.
func (h *PostHandler) Delete(c *gin.Context) {
	report, err := h.service.DeletePost(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to delete post")
		return
	}
	c.JSON(http.StatusOK, report)
}
