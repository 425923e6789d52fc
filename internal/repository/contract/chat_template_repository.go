package contract

import (
	"context"

	"dyor-ai-be/internal/entity"
	"dyor-ai-be/internal/repository/specification"
)

type ChatTemplateRepository interface {
	Create(ctx context.Context, template *entity.ChatTemplate) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatTemplate, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatTemplate, error)
}
