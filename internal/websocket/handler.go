package websocket

import (
	"context"
	"encoding/json"

	"dyor-ai-be/internal/pkg/logger"
	"dyor-ai-be/internal/service"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// AgentHandler dispatches inbound websocket frames to the agent service and
// emits the reply frames the client expects.
type AgentHandler struct {
	hub          *Hub
	agentService service.IAgentService
	logger       logger.ILogger
}

func NewAgentHandler(hub *Hub, agentService service.IAgentService, log logger.ILogger) *AgentHandler {
	return &AgentHandler{
		hub:          hub,
		agentService: agentService,
		logger:       log,
	}
}

// ServeWs handles a websocket connection for its whole lifetime.
func (h *AgentHandler) ServeWs(conn *websocket.Conn) {
	client := &Client{
		Hub:       h.hub,
		Conn:      conn,
		ClientID:  uuid.New(),
		Send:      make(chan []byte, 256),
		onMessage: h.dispatch,
	}
	client.Hub.register <- client

	go client.writePump()

	// Handshake: confirm the connection and push the current agent status.
	h.emit(client, "connected", map[string]interface{}{"status": "Connected to Dyor AI"})
	h.emit(client, "agent_status", h.agentService.GetStatus(client.ClientID.String()))

	client.readPump() // Run readPump in current goroutine (handler)
}

func (h *AgentHandler) dispatch(c *Client, raw []byte) {
	var frame struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		h.emit(c, "error", map[string]interface{}{"message": "malformed frame"})
		return
	}

	clientId := c.ClientID.String()

	switch frame.Event {
	case "send_message":
		var data struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(frame.Data, &data); err != nil || data.Message == "" {
			h.emit(c, "error", map[string]interface{}{"message": "Empty message received"})
			return
		}

		h.emit(c, "agent_status_update", map[string]interface{}{"status": service.AgentStatusThinking})

		response, err := h.agentService.ProcessMessage(context.Background(), clientId, data.Message)
		if err != nil {
			h.emit(c, "error", map[string]interface{}{"message": err.Error()})
			return
		}

		h.emit(c, "message_response", response)
		h.emit(c, "agent_status_update", h.agentService.GetStatus(clientId))

	case "get_history":
		h.emit(c, "chat_history", map[string]interface{}{"history": h.agentService.GetHistory(clientId)})

	case "get_status":
		h.emit(c, "agent_status", h.agentService.GetStatus(clientId))

	case "clear_history":
		h.agentService.ClearHistory(clientId)
		h.emit(c, "history_cleared", map[string]interface{}{"success": true})
		h.emit(c, "agent_status", h.agentService.GetStatus(clientId))

	default:
		h.emit(c, "error", map[string]interface{}{"message": "unknown event: " + frame.Event})
	}
}

func (h *AgentHandler) emit(c *Client, event string, data interface{}) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("WebSocket", "Failed to marshal frame", map[string]interface{}{"event": event, "error": err.Error()})
		return
	}
	select {
	case c.Send <- payload:
	default:
		h.logger.Warn("WebSocket", "Send buffer full, dropping frame", map[string]interface{}{"client_id": c.ClientID})
	}
}
