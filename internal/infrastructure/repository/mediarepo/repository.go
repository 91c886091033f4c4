package mediarepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domain "github.com/janhq/media-janitor/internal/domain/media"
	"github.com/janhq/media-janitor/internal/infrastructure/database/entities"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

// Repository handles media object persistence.
type Repository struct {
	db *gorm.DB
}

var _ domain.Repository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, obj *domain.MediaObject) error {
	entity := entities.MediaObject{
		ID:                 obj.ID,
		ObjectKey:          obj.ObjectKey,
		MimeType:           obj.MimeType,
		SizeBytes:          obj.SizeBytes,
		OwnerID:            obj.OwnerID,
		AssociatedEntityID: obj.AssociatedEntityID,
		Used:               obj.Used,
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to create media object", err, "mediarepo-create")
	}
	obj.CreatedAt = entity.CreatedAt
	obj.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *Repository) FindByKey(ctx context.Context, key string) (*domain.MediaObject, error) {
	var entity entities.MediaObject
	err := r.db.WithContext(ctx).Where("object_key = ?", key).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to find media by key", err, "mediarepo-find-key")
	}
	obj := mapEntity(entity)
	return &obj, nil
}

func (r *Repository) ListAll(ctx context.Context) ([]*domain.MediaObject, error) {
	return r.list(ctx, r.db.WithContext(ctx), "mediarepo-list-all")
}

func (r *Repository) ListByAssociatedEntity(ctx context.Context, entityID string) ([]*domain.MediaObject, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("associated_entity_id = ?", entityID), "mediarepo-list-associated")
}

func (r *Repository) SetUsed(ctx context.Context, key string, used bool) error {
	return r.update(ctx, key, map[string]interface{}{"used": used}, "mediarepo-set-used")
}

func (r *Repository) SetAssociatedEntity(ctx context.Context, key, entityID string) error {
	return r.update(ctx, key, map[string]interface{}{"associated_entity_id": entityID}, "mediarepo-set-associated")
}

func (r *Repository) DeleteByKey(ctx context.Context, key string) error {
	err := r.db.WithContext(ctx).Where("object_key = ?", key).Delete(&entities.MediaObject{}).Error
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to delete media object", err, "mediarepo-delete")
	}
	return nil
}

func (r *Repository) list(ctx context.Context, query *gorm.DB, code string) ([]*domain.MediaObject, error) {
	var rows []entities.MediaObject
	if err := query.Order("object_key ASC").Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to list media objects", err, code)
	}
	out := make([]*domain.MediaObject, 0, len(rows))
	for _, row := range rows {
		obj := mapEntity(row)
		out = append(out, &obj)
	}
	return out, nil
}

func (r *Repository) update(ctx context.Context, key string, values map[string]interface{}, code string) error {
	result := r.db.WithContext(ctx).Model(&entities.MediaObject{}).Where("object_key = ?", key).Updates(values)
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to update media object", result.Error, code)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
			"media object not found", nil, code)
	}
	return nil
}

func mapEntity(entity entities.MediaObject) domain.MediaObject {
	return domain.MediaObject{
		ID:                 entity.ID,
		ObjectKey:          entity.ObjectKey,
		MimeType:           entity.MimeType,
		SizeBytes:          entity.SizeBytes,
		OwnerID:            entity.OwnerID,
		AssociatedEntityID: entity.AssociatedEntityID,
		Used:               entity.Used,
		CreatedAt:          entity.CreatedAt,
		UpdatedAt:          entity.UpdatedAt,
	}
}
