package contentrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domain "github.com/janhq/media-janitor/internal/domain/content"
	"github.com/janhq/media-janitor/internal/infrastructure/database/entities"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

// PostRepository stores posts and comments with gorm.
type PostRepository struct {
	db *gorm.DB
}

var _ domain.PostRepository = (*PostRepository)(nil)

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) CreatePost(ctx context.Context, post *domain.Post) error {
	entity := entities.Post{
		ID:         post.ID,
		AuthorID:   post.AuthorID,
		Title:      post.Title,
		Content:    post.Content,
		CoverImage: post.CoverImage,
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to create post", err, "contentrepo-create-post")
	}
	post.CreatedAt = entity.CreatedAt
	post.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *PostRepository) CreateComment(ctx context.Context, comment *domain.Comment) error {
	entity := entities.Comment{
		ID:       comment.ID,
		PostID:   comment.PostID,
		AuthorID: comment.AuthorID,
		Content:  comment.Content,
		Images:   comment.Images,
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to create comment", err, "contentrepo-create-comment")
	}
	comment.CreatedAt = entity.CreatedAt
	return nil
}

func (r *PostRepository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	entity, err := findPost(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
			"post not found", nil, "contentrepo-post-not-found")
	}
	return &domain.Post{
		ID:         entity.ID,
		AuthorID:   entity.AuthorID,
		Title:      entity.Title,
		Content:    entity.Content,
		CoverImage: entity.CoverImage,
		CreatedAt:  entity.CreatedAt,
		UpdatedAt:  entity.UpdatedAt,
	}, nil
}

func (r *PostRepository) ListComments(ctx context.Context, postID string) ([]*domain.Comment, error) {
	rows, err := listComments(ctx, r.db, postID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Comment, 0, len(rows))
	for _, row := range rows {
		out = append(out, &domain.Comment{
			ID:        row.ID,
			PostID:    row.PostID,
			AuthorID:  row.AuthorID,
			Content:   row.Content,
			Images:    []string(row.Images),
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

func findPost(ctx context.Context, db *gorm.DB, id string) (*entities.Post, error) {
	var entity entities.Post
	err := db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to load post", err, "contentrepo-find-post")
	}
	return &entity, nil
}

func listComments(ctx context.Context, db *gorm.DB, postID string) ([]entities.Comment, error) {
	var rows []entities.Comment
	err := db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC, id ASC").Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to list comments", err, "contentrepo-list-comments")
	}
	return rows, nil
}
