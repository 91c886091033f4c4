package entities

import (
	"time"

	"gorm.io/datatypes"
)

// ScheduledTask represents a persisted job definition and its run state.
type ScheduledTask struct {
	ID             string         `gorm:"type:varchar(40);primaryKey"`
	Name           string         `gorm:"type:varchar(128);index;not null"`
	TaskType       string         `gorm:"type:varchar(64);index;not null"`
	CronExpression string         `gorm:"type:varchar(128);not null"`
	Enabled        bool           `gorm:"not null;default:false"`
	Status         string         `gorm:"type:varchar(16);index;not null;default:'idle'"`
	Config         datatypes.JSON `gorm:"type:text"`
	LastResult     datatypes.JSON `gorm:"type:text"`
	LastRunAt      *time.Time
	NextRunAt      *time.Time `gorm:"index"`
	RunStartedAt   *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (ScheduledTask) TableName() string {
	return "scheduled_tasks"
}
