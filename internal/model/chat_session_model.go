package model

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession rows are never hard-deleted through the API. IsActive is an
// explicit soft-delete flag rather than gorm.DeletedAt so that inactive rows
// stay addressable (delete is idempotent on already-deleted sessions).
type ChatSession struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;index"`
	IsActive  bool      `gorm:"not null;default:true;index"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
