package contentrepo

import (
	"context"

	"gorm.io/gorm"

	domain "github.com/janhq/media-janitor/internal/domain/content"
	"github.com/janhq/media-janitor/internal/infrastructure/database/entities"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

const (
	KindPost    = "post"
	KindComment = "comment"
)

// PostGraph exposes a post and its comments to the cascade deleter.
type PostGraph struct {
	db *gorm.DB
}

var _ domain.Graph = (*PostGraph)(nil)

func NewPostGraph(db *gorm.DB) *PostGraph {
	return &PostGraph{db: db}
}

func (g *PostGraph) Kind() string {
	return KindPost
}

func (g *PostGraph) LoadRoot(ctx context.Context, rootID string) (*domain.Entity, error) {
	post, err := findPost(ctx, g.db, rootID)
	if err != nil || post == nil {
		return nil, err
	}
	entity := &domain.Entity{ID: post.ID, Kind: KindPost, Texts: []string{post.Title, post.Content}}
	if post.CoverImage != "" {
		entity.References = []string{post.CoverImage}
	}
	return entity, nil
}

func (g *PostGraph) LoadDependents(ctx context.Context, rootID string) ([]*domain.Entity, error) {
	rows, err := listComments(ctx, g.db, rootID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Entity, 0, len(rows))
	for _, row := range rows {
		out = append(out, &domain.Entity{
			ID:         row.ID,
			Kind:       KindComment,
			Texts:      []string{row.Content},
			References: []string(row.Images),
		})
	}
	return out, nil
}

func (g *PostGraph) DeleteDependents(ctx context.Context, rootID string) (int64, error) {
	result := g.db.WithContext(ctx).Where("post_id = ?", rootID).Delete(&entities.Comment{})
	if result.Error != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to delete comments", result.Error, "contentrepo-delete-comments")
	}
	return result.RowsAffected, nil
}

func (g *PostGraph) DeleteRoot(ctx context.Context, rootID string) error {
	err := g.db.WithContext(ctx).Where("id = ?", rootID).Delete(&entities.Post{}).Error
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to delete post", err, "contentrepo-delete-post")
	}
	return nil
}
