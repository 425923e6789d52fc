package entity

import (
	"time"

	"github.com/google/uuid"
)

// TemplateMessage is one role/content pair used to seed a new session.
type TemplateMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatTemplate struct {
	Id              uuid.UUID
	Name            string
	Description     string
	SystemPrompt    string
	InitialMessages []TemplateMessage
	Tags            []string
	IsPublic        bool
	CreatedAt       time.Time
}
