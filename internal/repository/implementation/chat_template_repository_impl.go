package implementation

import (
	"context"
	"errors"

	"dyor-ai-be/internal/entity"
	"dyor-ai-be/internal/mapper"
	"dyor-ai-be/internal/model"
	"dyor-ai-be/internal/repository/contract"
	"dyor-ai-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ChatTemplateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatTemplateRepository(db *gorm.DB) contract.ChatTemplateRepository {
	return &ChatTemplateRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatTemplateRepositoryImpl) Create(ctx context.Context, template *entity.ChatTemplate) error {
	m, err := r.mapper.ChatTemplateToModel(template)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*template = *r.mapper.ChatTemplateToEntity(m)
	return nil
}

func (r *ChatTemplateRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatTemplate, error) {
	var m model.ChatTemplate
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatTemplateToEntity(&m), nil
}

func (r *ChatTemplateRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatTemplate, error) {
	var models []*model.ChatTemplate
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.ChatTemplate{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ChatTemplate, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ChatTemplateToEntity(m)
	}
	return entities, nil
}
