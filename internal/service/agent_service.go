package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"dyor-ai-be/internal/dto"
	"dyor-ai-be/internal/pkg/apperror"
	"dyor-ai-be/internal/pkg/logger"

	"github.com/patrickmn/go-cache"
)

const (
	AgentStatusIdle     = "idle"
	AgentStatusThinking = "thinking"
	AgentStatusError    = "error"
)

// IAgentService is the placeholder agent runtime. Conversations live in an
// in-memory cache keyed by client id and are lost on restart; durable chat
// history belongs to IChatService.
type IAgentService interface {
	ProcessMessage(ctx context.Context, clientId, message string) (*dto.AgentMessageResponse, error)
	GetHistory(clientId string) []dto.AgentMessageResponse
	GetStatus(clientId string) dto.AgentStatusResponse
	ClearHistory(clientId string)
}

type agentState struct {
	Messages    []dto.AgentMessageResponse
	Status      string
	CurrentTask string
}

// AgentEventMessage is the payload published for every processed exchange so
// other transports (the websocket hub) can observe agent activity.
type AgentEventMessage struct {
	ClientId string                   `json:"client_id"`
	Message  dto.AgentMessageResponse `json:"message"`
}

type agentService struct {
	histories        *cache.Cache
	mu               sync.Mutex
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewAgentService(publisherService IPublisherService, sysLogger logger.ILogger) IAgentService {
	return &agentService{
		histories:        cache.New(1*time.Hour, 10*time.Minute),
		publisherService: publisherService,
		logger:           sysLogger,
	}
}

func (a *agentService) ProcessMessage(ctx context.Context, clientId, message string) (*dto.AgentMessageResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperror.InvalidArgument("message is required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.state(clientId)
	state.Status = AgentStatusThinking

	userMessage := dto.AgentMessageResponse{
		Id:        len(state.Messages) + 1,
		Type:      "user",
		Content:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	state.Messages = append(state.Messages, userMessage)

	agentMessage := dto.AgentMessageResponse{
		Id:        len(state.Messages) + 1,
		Type:      "agent",
		Content:   cannedReply(message, state.Status),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	state.Messages = append(state.Messages, agentMessage)

	state.Status = AgentStatusIdle
	a.histories.Set(clientId, state, cache.DefaultExpiration)

	a.publishResponse(ctx, clientId, agentMessage)

	return &agentMessage, nil
}

func (a *agentService) GetHistory(clientId string) []dto.AgentMessageResponse {
	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.state(clientId)
	history := make([]dto.AgentMessageResponse, len(state.Messages))
	copy(history, state.Messages)
	return history
}

func (a *agentService) GetStatus(clientId string) dto.AgentStatusResponse {
	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.state(clientId)
	return dto.AgentStatusResponse{
		Status:       state.Status,
		CurrentTask:  state.CurrentTask,
		MessageCount: len(state.Messages),
		LastActivity: time.Now().UTC().Format(time.RFC3339),
	}
}

func (a *agentService) ClearHistory(clientId string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.histories.Delete(clientId)
}

// state returns the cached conversation for a client, creating a fresh one
// when none exists or the entry expired.
func (a *agentService) state(clientId string) *agentState {
	if x, found := a.histories.Get(clientId); found {
		return x.(*agentState)
	}
	state := &agentState{Status: AgentStatusIdle}
	a.histories.Set(clientId, state, cache.DefaultExpiration)
	return state
}

func (a *agentService) publishResponse(ctx context.Context, clientId string, msg dto.AgentMessageResponse) {
	if a.publisherService == nil {
		return
	}
	payload, err := json.Marshal(AgentEventMessage{ClientId: clientId, Message: msg})
	if err != nil {
		return
	}
	if err := a.publisherService.Publish(ctx, payload); err != nil {
		a.logger.Warn("AgentService", "Failed to publish agent response", map[string]interface{}{
			"client_id": clientId,
			"error":     err.Error(),
		})
	}
}

// cannedReply implements the development-mode agent: keyword routing with an
// echo fallback.
func cannedReply(message, status string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi"):
		return "Hello! I'm Dyor AI, your personal AI assistant. How can I help you today?"
	case strings.Contains(lower, "status"):
		return fmt.Sprintf("I'm currently %s and ready to help you with various tasks.", status)
	case strings.Contains(lower, "help"):
		return `I can help you with:
- Web browsing and research
- Code generation and execution
- File management
- Data analysis
- Image generation
- And much more! Just ask me what you need.`
	default:
		return fmt.Sprintf("I understand you said: '%s'. I'm currently in development mode. Soon I'll be able to help you with complex tasks using my full capabilities!", message)
	}
}
