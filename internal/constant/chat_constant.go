package constant

// SentinelTitle marks a session that has not been titled yet. The first user
// message rewrites it; clear_session restores it.
const SentinelTitle = "New Chat"

// AutoTitleMaxLen is how many characters of the first user message become the
// session title before an ellipsis is appended.
const AutoTitleMaxLen = 50

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"
)

// IsValidRole reports whether role belongs to the closed role enum.
func IsValidRole(role string) bool {
	switch role {
	case ChatMessageRoleUser, ChatMessageRoleAssistant, ChatMessageRoleSystem:
		return true
	}
	return false
}
