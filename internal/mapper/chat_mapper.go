package mapper

import (
	"encoding/json"

	"dyor-ai-be/internal/entity"
	"dyor-ai-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	return &entity.ChatSession{
		Id:        s.Id,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		IsActive:  s.IsActive,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	return &model.ChatSession{
		Id:        s.Id,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		IsActive:  s.IsActive,
	}
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	var metadata map[string]interface{}
	if msg.Metadata != nil {
		metadata = map[string]interface{}(msg.Metadata)
	}

	return &entity.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Role:          msg.Role,
		Content:       msg.Content,
		Timestamp:     msg.Timestamp,
		Metadata:      metadata,
	}
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	var metadata datatypes.JSONMap
	if msg.Metadata != nil {
		metadata = datatypes.JSONMap(msg.Metadata)
	}

	return &model.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Role:          msg.Role,
		Content:       msg.Content,
		Timestamp:     msg.Timestamp,
		Metadata:      metadata,
	}
}

// Template Mappers

func (m *ChatMapper) ChatTemplateToEntity(t *model.ChatTemplate) *entity.ChatTemplate {
	if t == nil {
		return nil
	}

	initialMessages := make([]entity.TemplateMessage, 0)
	if len(t.InitialMessages) > 0 {
		// A corrupt payload degrades to an empty seed list rather than failing
		// the whole read.
		_ = json.Unmarshal(t.InitialMessages, &initialMessages)
	}

	tags := make([]string, 0)
	if len(t.Tags) > 0 {
		_ = json.Unmarshal(t.Tags, &tags)
	}

	return &entity.ChatTemplate{
		Id:              t.Id,
		Name:            t.Name,
		Description:     t.Description,
		SystemPrompt:    t.SystemPrompt,
		InitialMessages: initialMessages,
		Tags:            tags,
		IsPublic:        t.IsPublic,
		CreatedAt:       t.CreatedAt,
	}
}

func (m *ChatMapper) ChatTemplateToModel(t *entity.ChatTemplate) (*model.ChatTemplate, error) {
	if t == nil {
		return nil, nil
	}

	initialMessages, err := json.Marshal(t.InitialMessages)
	if err != nil {
		return nil, err
	}

	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return nil, err
	}

	return &model.ChatTemplate{
		Id:              t.Id,
		Name:            t.Name,
		Description:     t.Description,
		SystemPrompt:    t.SystemPrompt,
		InitialMessages: datatypes.JSON(initialMessages),
		Tags:            datatypes.JSON(tags),
		IsPublic:        t.IsPublic,
		CreatedAt:       t.CreatedAt,
	}, nil
}
