package userrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domain "github.com/janhq/media-janitor/internal/domain/user"
	"github.com/janhq/media-janitor/internal/infrastructure/database/entities"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

// Repository handles user persistence.
type Repository struct {
	db *gorm.DB
}

var _ domain.Repository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, u *domain.User) error {
	entity := entities.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Avatar:       u.Avatar,
		Bio:          u.Bio,
		Status:       u.Status,
		LastActiveAt: u.LastActiveAt,
	}
	if entity.Status == "" {
		entity.Status = domain.StatusActive
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to create user", err, "userrepo-create")
	}
	u.Status = entity.Status
	u.CreatedAt = entity.CreatedAt
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var entity entities.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
				"user not found", err, "userrepo-get-not-found")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to load user", err, "userrepo-get")
	}
	return &domain.User{
		ID:           entity.ID,
		Name:         entity.Name,
		Email:        entity.Email,
		Avatar:       entity.Avatar,
		Bio:          entity.Bio,
		Status:       entity.Status,
		LastActiveAt: entity.LastActiveAt,
		CreatedAt:    entity.CreatedAt,
	}, nil
}

// MarkInactiveBefore does not touch users who were never seen.
func (r *Repository) MarkInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("status = ?", domain.StatusActive).
		Where("last_active_at IS NOT NULL AND last_active_at < ?", cutoff).
		Update("status", domain.StatusInactive)
	if result.Error != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to mark users inactive", result.Error, "userrepo-mark-inactive")
	}
	return result.RowsAffected, nil
}
