package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Post is a top-level content record.
type Post struct {
	ID         string    `gorm:"type:varchar(40);primaryKey"`
	AuthorID   string    `gorm:"type:varchar(64);index"`
	Title      string    `gorm:"type:varchar(255);not null"`
	Content    string    `gorm:"type:text"`
	CoverImage string    `gorm:"type:varchar(1024)"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Post) TableName() string {
	return "posts"
}

// Comment belongs to a post.
type Comment struct {
	ID        string                      `gorm:"type:varchar(40);primaryKey"`
	PostID    string                      `gorm:"type:varchar(40);index;not null"`
	AuthorID  string                      `gorm:"type:varchar(64)"`
	Content   string                      `gorm:"type:text"`
	Images    datatypes.JSONSlice[string] `gorm:"type:text"`
	CreatedAt time.Time                   `gorm:"autoCreateTime"`
}

func (Comment) TableName() string {
	return "comments"
}

// User is a profile with an avatar and bio.
type User struct {
	ID           string `gorm:"type:varchar(40);primaryKey"`
	Name         string `gorm:"type:varchar(255)"`
	Email        string `gorm:"type:varchar(255);uniqueIndex"`
	Avatar       string `gorm:"type:varchar(1024)"`
	Bio          string `gorm:"type:text"`
	Status       string `gorm:"type:varchar(16);index;not null;default:'active'"`
	LastActiveAt *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
