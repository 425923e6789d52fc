package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title      string `json:"title"`
	TemplateId string `json:"template_id"`
}

type MessageResponse struct {
	Id        uuid.UUID              `json:"id"`
	SessionId uuid.UUID              `json:"session_id"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// SessionResponse carries the derived message_count and last_message fields;
// they are computed from the message rows at read time, never stored.
type SessionResponse struct {
	Id           uuid.UUID        `json:"id"`
	Title        string           `json:"title"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	IsActive     bool             `json:"is_active"`
	MessageCount int64            `json:"message_count"`
	LastMessage  *MessageResponse `json:"last_message,omitempty"`
}

type GetSessionsResponse struct {
	Sessions   []*SessionResponse `json:"sessions"`
	TotalCount int64              `json:"total_count"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}

type GetSessionResponse struct {
	Session  *SessionResponse   `json:"session"`
	Messages []*MessageResponse `json:"messages"`
}

type UpdateSessionRequest struct {
	Title string `json:"title"`
}

type AddMessageRequest struct {
	Role     string                 `json:"role" validate:"required"`
	Content  string                 `json:"content" validate:"required"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type AddMessageResponse struct {
	Message *MessageResponse `json:"message"`
	Session *SessionResponse `json:"session"`
}

type SearchSessionsResponse struct {
	Sessions   []*SessionResponse `json:"sessions"`
	Query      string             `json:"query"`
	TotalFound int                `json:"total_found"`
}

type TemplateMessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TemplateResponse struct {
	Id              uuid.UUID            `json:"id"`
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	SystemPrompt    string               `json:"system_prompt"`
	InitialMessages []TemplateMessageDTO `json:"initial_messages"`
	Tags            []string             `json:"tags"`
	IsPublic        bool                 `json:"is_public"`
	CreatedAt       time.Time            `json:"created_at"`
}

type CreateTemplateRequest struct {
	Name            string               `json:"name" validate:"required"`
	Description     string               `json:"description"`
	SystemPrompt    string               `json:"system_prompt" validate:"required"`
	InitialMessages []TemplateMessageDTO `json:"initial_messages,omitempty"`
	Tags            []string             `json:"tags,omitempty"`
}
