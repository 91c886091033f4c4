package entities

import "time"

// MediaObject represents the persisted media metadata.
type MediaObject struct {
	ID                 string    `gorm:"type:varchar(40);primaryKey"`
	ObjectKey          string    `gorm:"type:varchar(512);uniqueIndex;not null"`
	MimeType           string    `gorm:"type:varchar(64);not null"`
	SizeBytes          int64     `gorm:"not null"`
	OwnerID            string    `gorm:"type:varchar(64);index"`
	AssociatedEntityID string    `gorm:"type:varchar(64);index"`
	Used               bool      `gorm:"not null;default:false"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (MediaObject) TableName() string {
	return "media_objects"
}
