package service

import (
	"context"
	"strings"
	"time"

	"dyor-ai-be/internal/constant"
	"dyor-ai-be/internal/dto"
	"dyor-ai-be/internal/entity"
	"dyor-ai-be/internal/pkg/apperror"
	"dyor-ai-be/internal/pkg/logger"
	"dyor-ai-be/internal/repository/specification"
	"dyor-ai-be/internal/repository/unitofwork"
	"dyor-ai-be/pkg/events"
	pktNats "dyor-ai-be/pkg/nats"

	"github.com/google/uuid"
)

// IChatService is the session manager: the single entry point through which
// sessions, messages and templates are read or mutated.
type IChatService interface {
	CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	GetSessions(ctx context.Context, limit, offset int) (*dto.GetSessionsResponse, error)
	GetSession(ctx context.Context, id uuid.UUID) (*dto.GetSessionResponse, error)
	UpdateSession(ctx context.Context, id uuid.UUID, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	AddMessage(ctx context.Context, sessionId uuid.UUID, req *dto.AddMessageRequest) (*dto.AddMessageResponse, error)
	ClearSession(ctx context.Context, id uuid.UUID) error
	SearchSessions(ctx context.Context, query string, limit int) (*dto.SearchSessionsResponse, error)
	GetTemplates(ctx context.Context) ([]*dto.TemplateResponse, error)
	CreateTemplate(ctx context.Context, req *dto.CreateTemplateRequest) (*dto.TemplateResponse, error)
}

type chatService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher *pktNats.Publisher,
	sysLogger logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		logger:         sysLogger,
	}
}

func (c *chatService) CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	title := strings.TrimSpace(req.Title)
	var seedMessages []entity.TemplateMessage

	// Template resolution is lenient: an unknown or malformed template id
	// falls back to defaults instead of failing the create.
	if req.TemplateId != "" {
		if templateId, err := uuid.Parse(req.TemplateId); err == nil {
			template, err := uow.ChatTemplateRepository().FindOne(ctx, specification.ByID{ID: templateId})
			if err != nil {
				return nil, apperror.StorageFailure("failed to resolve template", err)
			}
			if template != nil {
				if title == "" {
					title = "Chat with " + template.Name
				}
				seedMessages = template.InitialMessages
			}
		}
	}
	if title == "" {
		title = constant.SentinelTitle
	}

	now := time.Now().UTC()
	session := entity.ChatSession{
		Id:        uuid.New(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.StorageFailure("failed to begin transaction", err)
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, &session); err != nil {
		return nil, apperror.StorageFailure("failed to create chat session", err)
	}

	var lastMessage *entity.ChatMessage
	for i, seed := range seedMessages {
		role := seed.Role
		if role == "" {
			role = constant.ChatMessageRoleAssistant
		}
		message := entity.ChatMessage{
			Id:            uuid.New(),
			ChatSessionId: session.Id,
			Role:          role,
			Content:       seed.Content,
			// Stagger timestamps so the template order survives the
			// timestamp-ascending read path.
			Timestamp: now.Add(time.Duration(i) * time.Millisecond),
		}
		if err := uow.ChatMessageRepository().Create(ctx, &message); err != nil {
			return nil, apperror.StorageFailure("failed to seed template message", err)
		}
		m := message
		lastMessage = &m
	}

	if err := uow.Commit(); err != nil {
		return nil, apperror.StorageFailure("failed to commit chat session", err)
	}

	c.publishEvent(ctx, events.TypeSessionCreated, map[string]interface{}{
		"session_id": session.Id,
		"title":      session.Title,
	})

	return toSessionResponse(&session, int64(len(seedMessages)), lastMessage), nil
}

func (c *chatService) GetSessions(ctx context.Context, limit, offset int) (*dto.GetSessionsResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.ActiveOnly{},
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, apperror.StorageFailure("failed to list chat sessions", err)
	}

	// total_count covers the full active set regardless of paging.
	totalCount, err := uow.ChatSessionRepository().Count(ctx, specification.ActiveOnly{})
	if err != nil {
		return nil, apperror.StorageFailure("failed to count chat sessions", err)
	}

	responses := make([]*dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		resp, err := c.buildSessionResponse(ctx, uow, session)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}

	return &dto.GetSessionsResponse{
		Sessions:   responses,
		TotalCount: totalCount,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

func (c *chatService) GetSession(ctx context.Context, id uuid.UUID) (*dto.GetSessionResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ActiveOnly{},
	)
	if err != nil {
		return nil, apperror.StorageFailure("failed to load chat session", err)
	}
	if session == nil {
		return nil, apperror.NotFound("chat session not found")
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: id},
		specification.OrderBy{Field: "timestamp", Desc: false},
	)
	if err != nil {
		return nil, apperror.StorageFailure("failed to load chat messages", err)
	}

	messageResponses := make([]*dto.MessageResponse, len(messages))
	for i, m := range messages {
		messageResponses[i] = toMessageResponse(m)
	}

	var lastMessage *entity.ChatMessage
	if len(messages) > 0 {
		lastMessage = messages[len(messages)-1]
	}

	return &dto.GetSessionResponse{
		Session:  toSessionResponse(session, int64(len(messages)), lastMessage),
		Messages: messageResponses,
	}, nil
}

func (c *chatService) UpdateSession(ctx context.Context, id uuid.UUID, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ActiveOnly{},
	)
	if err != nil {
		return nil, apperror.StorageFailure("failed to load chat session", err)
	}
	if session == nil {
		return nil, apperror.NotFound("chat session not found")
	}

	// An empty title leaves the current one untouched; updated_at is bumped
	// either way.
	if title := strings.TrimSpace(req.Title); title != "" {
		session.Title = title
	}
	session.UpdatedAt = time.Now().UTC()

	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, apperror.StorageFailure("failed to update chat session", err)
	}

	return c.buildSessionResponse(ctx, uow, session)
}

// DeleteSession soft-deletes. Unlike the other operations it only checks
// existence, not is_active, so deleting an already-deleted session succeeds.
func (c *chatService) DeleteSession(ctx context.Context, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return apperror.StorageFailure("failed to load chat session", err)
	}
	if session == nil {
		return apperror.NotFound("chat session not found")
	}

	session.IsActive = false
	session.UpdatedAt = time.Now().UTC()

	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return apperror.StorageFailure("failed to delete chat session", err)
	}

	c.publishEvent(ctx, events.TypeSessionDeleted, map[string]interface{}{
		"session_id": session.Id,
	})

	return nil
}

func (c *chatService) AddMessage(ctx context.Context, sessionId uuid.UUID, req *dto.AddMessageRequest) (*dto.AddMessageResponse, error) {
	role := strings.TrimSpace(req.Role)
	if role == "" || req.Content == "" {
		return nil, apperror.InvalidArgument("role and content are required")
	}
	if !constant.IsValidRole(role) {
		return nil, apperror.InvalidArgument("role must be one of user, assistant, system")
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.ActiveOnly{},
	)
	if err != nil {
		return nil, apperror.StorageFailure("failed to load chat session", err)
	}
	if session == nil {
		return nil, apperror.NotFound("chat session not found")
	}

	now := time.Now().UTC()
	message := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		Role:          role,
		Content:       req.Content,
		Timestamp:     now,
		Metadata:      req.Metadata,
	}

	session.UpdatedAt = now
	if role == constant.ChatMessageRoleUser && session.Title == constant.SentinelTitle {
		session.Title = autoTitle(req.Content)
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.StorageFailure("failed to begin transaction", err)
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, &message); err != nil {
		return nil, apperror.StorageFailure("failed to add message", err)
	}
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, apperror.StorageFailure("failed to touch chat session", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, apperror.StorageFailure("failed to commit message", err)
	}

	c.publishEvent(ctx, events.TypeMessageAdded, map[string]interface{}{
		"session_id": session.Id,
		"message_id": message.Id,
		"role":       message.Role,
	})

	sessionResp, err := c.buildSessionResponse(ctx, uow, session)
	if err != nil {
		return nil, err
	}

	return &dto.AddMessageResponse{
		Message: toMessageResponse(&message),
		Session: sessionResp,
	}, nil
}

func (c *chatService) ClearSession(ctx context.Context, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ActiveOnly{},
	)
	if err != nil {
		return apperror.StorageFailure("failed to load chat session", err)
	}
	if session == nil {
		return apperror.NotFound("chat session not found")
	}

	session.Title = constant.SentinelTitle
	session.UpdatedAt = time.Now().UTC()

	if err := uow.Begin(ctx); err != nil {
		return apperror.StorageFailure("failed to begin transaction", err)
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteBySessionId(ctx, id); err != nil {
		return apperror.StorageFailure("failed to clear messages", err)
	}
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return apperror.StorageFailure("failed to reset chat session", err)
	}

	if err := uow.Commit(); err != nil {
		return apperror.StorageFailure("failed to commit clear", err)
	}

	c.publishEvent(ctx, events.TypeSessionCleared, map[string]interface{}{
		"session_id": session.Id,
	})

	return nil
}

// SearchSessions unions title matches with message-content matches. Each
// match set is capped at limit before deduplication, so the combined result
// may exceed limit.
func (c *chatService) SearchSessions(ctx context.Context, query string, limit int) (*dto.SearchSessionsResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	titleMatches, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.ActiveOnly{},
		specification.TitleContains{Query: query},
		specification.Limit{Limit: limit},
	)
	if err != nil {
		return nil, apperror.StorageFailure("failed to search by title", err)
	}

	contentMatches, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.ActiveOnly{},
		specification.HasMessageContaining{Query: query},
		specification.Limit{Limit: limit},
	)
	if err != nil {
		return nil, apperror.StorageFailure("failed to search by content", err)
	}

	seen := make(map[uuid.UUID]bool)
	merged := make([]*entity.ChatSession, 0, len(titleMatches)+len(contentMatches))
	for _, session := range append(titleMatches, contentMatches...) {
		if seen[session.Id] {
			continue
		}
		seen[session.Id] = true
		merged = append(merged, session)
	}

	responses := make([]*dto.SessionResponse, 0, len(merged))
	for _, session := range merged {
		resp, err := c.buildSessionResponse(ctx, uow, session)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}

	return &dto.SearchSessionsResponse{
		Sessions:   responses,
		Query:      query,
		TotalFound: len(responses),
	}, nil
}

func (c *chatService) GetTemplates(ctx context.Context) ([]*dto.TemplateResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	templates, err := uow.ChatTemplateRepository().FindAll(ctx,
		specification.PublicOnly{},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, apperror.StorageFailure("failed to list templates", err)
	}

	responses := make([]*dto.TemplateResponse, len(templates))
	for i, t := range templates {
		responses[i] = toTemplateResponse(t)
	}
	return responses, nil
}

func (c *chatService) CreateTemplate(ctx context.Context, req *dto.CreateTemplateRequest) (*dto.TemplateResponse, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.SystemPrompt) == "" {
		return nil, apperror.InvalidArgument("name and system_prompt are required")
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)

	initialMessages := make([]entity.TemplateMessage, len(req.InitialMessages))
	for i, m := range req.InitialMessages {
		initialMessages[i] = entity.TemplateMessage{Role: m.Role, Content: m.Content}
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	template := entity.ChatTemplate{
		Id:              uuid.New(),
		Name:            req.Name,
		Description:     req.Description,
		SystemPrompt:    req.SystemPrompt,
		InitialMessages: initialMessages,
		Tags:            tags,
		IsPublic:        true,
		CreatedAt:       time.Now().UTC(),
	}

	if err := uow.ChatTemplateRepository().Create(ctx, &template); err != nil {
		return nil, apperror.StorageFailure("failed to create template", err)
	}

	return toTemplateResponse(&template), nil
}

// publishEvent is best effort: eventing is auxiliary and never fails the
// originating operation.
func (c *chatService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if c.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
	if err := c.eventPublisher.Publish(ctx, evt); err != nil {
		c.logger.Warn("ChatService", "Failed to publish event", map[string]interface{}{
			"event_type": eventType,
			"error":      err.Error(),
		})
	}
}

func (c *chatService) buildSessionResponse(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.ChatSession) (*dto.SessionResponse, error) {
	count, err := uow.ChatMessageRepository().CountBySessionId(ctx, session.Id)
	if err != nil {
		return nil, apperror.StorageFailure("failed to count messages", err)
	}
	last, err := uow.ChatMessageRepository().FindLast(ctx, session.Id)
	if err != nil {
		return nil, apperror.StorageFailure("failed to load last message", err)
	}
	return toSessionResponse(session, count, last), nil
}

// autoTitle derives a session title from the first user message: the first
// 50 characters, with an ellipsis marker when truncated.
func autoTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= constant.AutoTitleMaxLen {
		return content
	}
	return string(runes[:constant.AutoTitleMaxLen]) + "..."
}

func toSessionResponse(session *entity.ChatSession, messageCount int64, lastMessage *entity.ChatMessage) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		Id:           session.Id,
		Title:        session.Title,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
		IsActive:     session.IsActive,
		MessageCount: messageCount,
	}
	if lastMessage != nil {
		resp.LastMessage = toMessageResponse(lastMessage)
	}
	return resp
}

func toMessageResponse(m *entity.ChatMessage) *dto.MessageResponse {
	return &dto.MessageResponse{
		Id:        m.Id,
		SessionId: m.ChatSessionId,
		Role:      m.Role,
		Content:   m.Content,
		Timestamp: m.Timestamp,
		Metadata:  m.Metadata,
	}
}

func toTemplateResponse(t *entity.ChatTemplate) *dto.TemplateResponse {
	initialMessages := make([]dto.TemplateMessageDTO, len(t.InitialMessages))
	for i, m := range t.InitialMessages {
		initialMessages[i] = dto.TemplateMessageDTO{Role: m.Role, Content: m.Content}
	}
	return &dto.TemplateResponse{
		Id:              t.Id,
		Name:            t.Name,
		Description:     t.Description,
		SystemPrompt:    t.SystemPrompt,
		InitialMessages: initialMessages,
		Tags:            t.Tags,
		IsPublic:        t.IsPublic,
		CreatedAt:       t.CreatedAt,
	}
}
