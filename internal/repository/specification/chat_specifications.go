package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActiveOnly filters out soft-deleted sessions.
type ActiveOnly struct{}

func (s ActiveOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_sessions.is_active = ?", true)
}

// PublicOnly filters templates listed to everyone.
type PublicOnly struct{}

func (s PublicOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_public = ?", true)
}

type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

// TitleContains matches sessions whose title contains the query as a
// substring. Plain LIKE keeps case sensitivity as stored and stays portable
// across postgres and the sqlite test driver.
type TitleContains struct {
	Query string
}

func (s TitleContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_sessions.title LIKE ? ESCAPE '\\'", "%"+escapeLike(s.Query)+"%")
}

// HasMessageContaining matches sessions owning at least one message whose
// content contains the query. The join is added here so callers can compose
// it like any other specification.
type HasMessageContaining struct {
	Query string
}

func (s HasMessageContaining) Apply(db *gorm.DB) *gorm.DB {
	return db.
		Joins("JOIN chat_messages ON chat_messages.chat_session_id = chat_sessions.id").
		Where("chat_messages.content LIKE ? ESCAPE '\\'", "%"+escapeLike(s.Query)+"%").
		Distinct("chat_sessions.*")
}

func escapeLike(q string) string {
	out := make([]byte, 0, len(q))
	for i := 0; i < len(q); i++ {
		switch q[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, q[i])
	}
	return string(out)
}
