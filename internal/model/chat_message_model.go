package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatMessage struct {
	Id            uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ChatSessionId uuid.UUID         `gorm:"type:uuid;not null;index"`
	Role          string            `gorm:"type:varchar(20);not null"`
	Content       string            `gorm:"type:text;not null"`
	Timestamp     time.Time         `gorm:"not null;index"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb"`

	Session *ChatSession `gorm:"foreignKey:ChatSessionId;constraint:OnDelete:CASCADE"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
