package content

import (
	"context"
	"time"

	"github.com/janhq/media-janitor/internal/domain/media"
)

// Post is a top-level content entity. Comments depend on it.
type Post struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CoverImage string    `json:"cover_image,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Comment belongs to a post and may carry an explicit image list.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	Images    []string  `json:"images,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Entity is the kind-agnostic view of a content record used by cascades:
// free text to scan plus bare reference values such as cover images or
// image list entries.
type Entity struct {
	ID         string
	Kind       string
	Texts      []string
	References []string
}

// Graph loads and deletes one root kind together with its dependents.
type Graph interface {
	Kind() string
	// LoadRoot returns nil, nil when the root does not exist.
	LoadRoot(ctx context.Context, rootID string) (*Entity, error)
	LoadDependents(ctx context.Context, rootID string) ([]*Entity, error)
	DeleteDependents(ctx context.Context, rootID string) (int64, error)
	DeleteRoot(ctx context.Context, rootID string) error
}

// MediaStore removes media objects (blob first, then record).
type MediaStore interface {
	Delete(ctx context.Context, key string) error
	ListByAssociatedEntity(ctx context.Context, entityID string) ([]*media.MediaObject, error)
}

// PostRepository persists posts and comments.
type PostRepository interface {
	CreatePost(ctx context.Context, post *Post) error
	CreateComment(ctx context.Context, comment *Comment) error
	GetPost(ctx context.Context, id string) (*Post, error)
	ListComments(ctx context.Context, postID string) ([]*Comment, error)
}
