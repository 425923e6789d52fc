package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatTemplate struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name            string         `gorm:"type:varchar(255);not null"`
	Description     string         `gorm:"type:text"`
	SystemPrompt    string         `gorm:"type:text;not null"`
	InitialMessages datatypes.JSON `gorm:"type:jsonb"`
	Tags            datatypes.JSON `gorm:"type:jsonb"`
	IsPublic        bool           `gorm:"not null;default:true;index"`
	CreatedAt       time.Time      `gorm:"not null"`
}

func (ChatTemplate) TableName() string {
	return "chat_templates"
}
