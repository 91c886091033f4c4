package content

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/janhq/media-janitor/internal/utils/idgen"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

// Service is the thin write path for posts and comments. Content is stored as
// given; embedded media is discovered later by scanning.
type Service struct {
	posts   PostRepository
	cascade *CascadeDeleter
	log     zerolog.Logger
}

func NewService(posts PostRepository, cascade *CascadeDeleter, log zerolog.Logger) *Service {
	return &Service{
		posts:   posts,
		cascade: cascade,
		log:     log.With().Str("component", "content-service").Logger(),
	}
}

func (s *Service) CreatePost(ctx context.Context, post *Post) (*Post, error) {
	if strings.TrimSpace(post.AuthorID) == "" || strings.TrimSpace(post.Title) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"author_id and title are required", nil, "content-post-invalid")
	}
	post.ID = idgen.New(idgen.PrefixPost)
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Service) AddComment(ctx context.Context, comment *Comment) (*Comment, error) {
	if strings.TrimSpace(comment.AuthorID) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"author_id is required", nil, "content-comment-invalid")
	}
	if _, err := s.posts.GetPost(ctx, comment.PostID); err != nil {
		return nil, err
	}
	comment.ID = idgen.New(idgen.PrefixComment)
	if err := s.posts.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *Service) GetPost(ctx context.Context, id string) (*Post, []*Comment, error) {
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.posts.ListComments(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return post, comments, nil
}

// DeletePost removes the post, its comments and their embedded media.
func (s *Service) DeletePost(ctx context.Context, id string) (*CascadeReport, error) {
	return s.cascade.Delete(ctx, id)
}
