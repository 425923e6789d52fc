package dto

type SendAgentMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

type AgentMessageResponse struct {
	Id        int    `json:"id"`
	Type      string `json:"type"` // "user" | "agent"
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type AgentStatusResponse struct {
	Status       string `json:"status"`
	CurrentTask  string `json:"current_task,omitempty"`
	MessageCount int    `json:"message_count"`
	LastActivity string `json:"last_activity"`
}
