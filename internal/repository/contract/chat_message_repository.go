package contract

import (
	"context"

	"dyor-ai-be/internal/entity"
	"dyor-ai-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error // Hard delete, used by clear
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	FindLast(ctx context.Context, sessionId uuid.UUID) (*entity.ChatMessage, error)
	CountBySessionId(ctx context.Context, sessionId uuid.UUID) (int64, error)
}
