package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"dyor-ai-be/internal/constant"
	"dyor-ai-be/internal/dto"
	"dyor-ai-be/internal/model"
	"dyor-ai-be/internal/pkg/apperror"
	"dyor-ai-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testLogger satisfies logger.ILogger without writing anywhere.
type testLogger struct{}

func (testLogger) Debug(module, message string, details map[string]interface{}) {}
func (testLogger) Info(module, message string, details map[string]interface{})  {}
func (testLogger) Warn(module, message string, details map[string]interface{})  {}
func (testLogger) Error(module, message string, details map[string]interface{}) {}
func (testLogger) Sync() error                                                  { return nil }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.ChatTemplate{},
	))

	return db
}

func newChatService(t *testing.T) IChatService {
	t.Helper()
	uowFactory := unitofwork.NewRepositoryFactory(newTestDB(t))
	return NewChatService(uowFactory, nil, testLogger{})
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr), "expected apperror, got %v", err)
	assert.Equal(t, kind, appErr.Kind)
}

func TestCreateSession(t *testing.T) {
	ctx := context.Background()
	svc := newChatService(t)

	t.Run("defaults to sentinel title", func(t *testing.T) {
		session, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{})
		require.NoError(t, err)
		assert.Equal(t, constant.SentinelTitle, session.Title)
		assert.True(t, session.IsActive)
		assert.Equal(t, int64(0), session.MessageCount)

		got, err := svc.GetSession(ctx, session.Id)
		require.NoError(t, err)
		assert.Equal(t, session.Title, got.Session.Title)
		assert.Empty(t, got.Messages)
	})

	t.Run("keeps explicit title", func(t *testing.T) {
		session, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{Title: "Trip planning"})
		require.NoError(t, err)
		assert.Equal(t, "Trip planning", session.Title)
	})

	t.Run("unknown template falls back to defaults", func(t *testing.T) {
		session, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{TemplateId: uuid.NewString()})
		require.NoError(t, err)
		assert.Equal(t, constant.SentinelTitle, session.Title)
		assert.Equal(t, int64(0), session.MessageCount)
	})

	t.Run("malformed template id falls back to defaults", func(t *testing.T) {
		session, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{TemplateId: "not-a-uuid"})
		require.NoError(t, err)
		assert.Equal(t, constant.SentinelTitle, session.Title)
	})
}

func TestCreateSessionFromTemplate(t *testing.T) {
	ctx := context.Background()
	svc := newChatService(t)

	template, err := svc.CreateTemplate(ctx, &dto.CreateTemplateRequest{
		Name:         "Code Review",
		SystemPrompt: "You review code.",
		InitialMessages: []dto.TemplateMessageDTO{
			{Role: "system", Content: "You review code."},
			{Content: "Paste the code you want reviewed."}, // role omitted on purpose
			{Role: "user", Content: "Here is my function."},
		},
	})
	require.NoError(t, err)

	t.Run("materializes seed messages in order", func(t *testing.T) {
		session, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{TemplateId: template.Id.String()})
		require.NoError(t, err)
		assert.Equal(t, "Chat with Code Review", session.Title)
		assert.Equal(t, int64(3), session.MessageCount)

		got, err := svc.GetSession(ctx, session.Id)
		require.NoError(t, err)
		require.Len(t, got.Messages, 3)
		assert.Equal(t, "system", got.Messages[0].Role)
		assert.Equal(t, constant.ChatMessageRoleAssistant, got.Messages[1].Role)
		assert.Equal(t, "Paste the code you want reviewed.", got.Messages[1].Content)
		assert.Equal(t, "Here is my function.", got.Messages[2].Content)
	})

	t.Run("explicit title wins over template title", func(t *testing.T) {
		session, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{
			Title:      "My review",
			TemplateId: template.Id.String(),
		})
		require.NoError(t, err)
		assert.Equal(t, "My review", session.Title)
	})
}

func TestGetSessions(t *testing.T) {
	ctx := context.Background()
	svc := newChatService(t)

	first, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{Title: "first"})
	require.NoError(t, err)
	second, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{Title: "second"})
	require.NoError(t, err)
	third, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{Title: "third"})
	require.NoError(t, err)

	// Touch the first session so it becomes the most recently active.
	_, err = svc.AddMessage(ctx, first.Id, &dto.AddMessageRequest{Role: "user", Content: "bump"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(ctx, second.Id))

	t.Run("excludes inactive and orders by recency", func(t *testing.T) {
		res, err := svc.GetSessions(ctx, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.TotalCount)
		require.Len(t, res.Sessions, 2)
		assert.Equal(t, first.Id, res.Sessions[0].Id)
		assert.Equal(t, third.Id, res.Sessions[1].Id)
	})

	t.Run("total count ignores paging", func(t *testing.T) {
		res, err := svc.GetSessions(ctx, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.TotalCount)
		require.Len(t, res.Sessions, 1)
		assert.Equal(t, third.Id, res.Sessions[0].Id)
	})

	t.Run("derived last message", func(t *testing.T) {
		res, err := svc.GetSessions(ctx, 50, 0)
		require.NoError(t, err)
		require.NotNil(t, res.Sessions[0].LastMessage)
		assert.Equal(t, "bump", res.Sessions[0].LastMessage.Content)
		assert.Nil(t, res.Sessions[1].LastMessage)
	})
}

func TestUpdateSession(t *testing.T) {
	ctx := context.Background()
	svc := newChatService(t)

	session, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{Title: "before"})
	require.NoError(t, err)

	t.Run("updates title and bumps updated_at", func(t *testing.T) {
		updated, err := svc.UpdateSession(ctx, session.Id, &dto.UpdateSessionRequest{Title: "after"})
		require.NoError(t, err)
		assert.Equal(t, "after", updated.Title)
		assert.False(t, updated.UpdatedAt.Before(session.UpdatedAt))
	})

	t.Run("empty title leaves current title", func(t *testing.T) {
		updated, err := svc.UpdateSession(ctx, session.Id, &dto.UpdateSessionRequest{})
		require.NoError(t, err)
		assert.Equal(t, "after", updated.Title)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.UpdateSession(ctx, uuid.New(), &dto.UpdateSessionRequest{Title: "x"})
		assertKind(t, err, apperror.KindNotFound)
	})

	t.Run("inactive session", func(t *testing.T) {
		require.NoError(t, svc.DeleteSession(ctx, session.Id))
		_, err := svc.UpdateSession(ctx, session.Id, &dto.UpdateSessionRequest{Title: "x"})
		assertKind(t, err, apperror.KindNotFound)
	})
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	svc := newChatService(t)

	session, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{Title: "doomed"})
	require.NoError(t, err)
	_, err = svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "user", Content: "keep me"})
	require.NoError(t, err)

	t.Run("soft deletes", func(t *testing.T) {
		require.NoError(t, svc.DeleteSession(ctx, session.Id))

		_, err := svc.GetSession(ctx, session.Id)
		assertKind(t, err, apperror.KindNotFound)
	})

	t.Run("deleting an already deleted session succeeds", func(t *testing.T) {
		assert.NoError(t, svc.DeleteSession(ctx, session.Id))
	})

	t.Run("unknown id", func(t *testing.T) {
		err := svc.DeleteSession(ctx, uuid.New())
		assertKind(t, err, apperror.KindNotFound)
	})
}

func TestAddMessage(t *testing.T) {
	ctx := context.Background()
	svc := newChatService(t)

	session, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{})
	require.NoError(t, err)

	t.Run("validation", func(t *testing.T) {
		_, err := svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "", Content: "x"})
		assertKind(t, err, apperror.KindInvalidArgument)

		_, err = svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "user", Content: ""})
		assertKind(t, err, apperror.KindInvalidArgument)

		_, err = svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "wizard", Content: "x"})
		assertKind(t, err, apperror.KindInvalidArgument)
	})

	t.Run("persists message and metadata", func(t *testing.T) {
		res, err := svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{
			Role:     "user",
			Content:  "Hello world",
			Metadata: map[string]interface{}{"source": "web"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Hello world", res.Message.Content)
		assert.Equal(t, int64(1), res.Session.MessageCount)

		got, err := svc.GetSession(ctx, session.Id)
		require.NoError(t, err)
		require.Len(t, got.Messages, 1)
		assert.Equal(t, "web", got.Messages[0].Metadata["source"])
	})

	t.Run("bumps updated_at and message count", func(t *testing.T) {
		before, err := svc.GetSession(ctx, session.Id)
		require.NoError(t, err)

		res, err := svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "assistant", Content: "Hi!"})
		require.NoError(t, err)
		assert.Equal(t, before.Session.MessageCount+1, res.Session.MessageCount)
		assert.False(t, res.Session.UpdatedAt.Before(before.Session.UpdatedAt))
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := svc.AddMessage(ctx, uuid.New(), &dto.AddMessageRequest{Role: "user", Content: "x"})
		assertKind(t, err, apperror.KindNotFound)
	})

	t.Run("inactive session", func(t *testing.T) {
		require.NoError(t, svc.DeleteSession(ctx, session.Id))
		_, err := svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "user", Content: "x"})
		assertKind(t, err, apperror.KindNotFound)
	})
}

func TestAutoTitle(t *testing.T) {
	ctx := context.Background()
	svc := newChatService(t)

	t.Run("short content becomes title verbatim", func(t *testing.T) {
		session, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{})
		require.NoError(t, err)

		res, err := svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "user", Content: "Plan my week"})
		require.NoError(t, err)
		assert.Equal(t, "Plan my week", res.Session.Title)
	})

	t.Run("long content is truncated with ellipsis", func(t *testing.T) {
		session, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{})
		require.NoError(t, err)

		content := "Hello there, how are you today? I wanted to ask about something specific"
		res, err := svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "user", Content: content})
		require.NoError(t, err)
		assert.Equal(t, content[:50]+"...", res.Session.Title)
		assert.Len(t, []rune(res.Session.Title), 53)
	})

	t.Run("fires at most once", func(t *testing.T) {
		session, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{})
		require.NoError(t, err)

		first, err := svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "user", Content: "First question"})
		require.NoError(t, err)

		second, err := svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "user", Content: "Second question"})
		require.NoError(t, err)
		assert.Equal(t, first.Session.Title, second.Session.Title)
	})

	t.Run("assistant messages never set the title", func(t *testing.T) {
		session, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{})
		require.NoError(t, err)

		res, err := svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "assistant", Content: "Welcome!"})
		require.NoError(t, err)
		assert.Equal(t, constant.SentinelTitle, res.Session.Title)
	})

	t.Run("multibyte content is truncated on rune boundaries", func(t *testing.T) {
		session, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{})
		require.NoError(t, err)

		content := strings.Repeat("日", 60)
		res, err := svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "user", Content: content})
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("日", 50)+"...", res.Session.Title)
	})
}

func TestClearSession(t *testing.T) {
	ctx := context.Background()
	svc := newChatService(t)

	session, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{})
	require.NoError(t, err)
	_, err = svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "user", Content: "name this session"})
	require.NoError(t, err)
	_, err = svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "assistant", Content: "done"})
	require.NoError(t, err)

	t.Run("removes messages and resets title", func(t *testing.T) {
		require.NoError(t, svc.ClearSession(ctx, session.Id))

		got, err := svc.GetSession(ctx, session.Id)
		require.NoError(t, err)
		assert.Empty(t, got.Messages)
		assert.Equal(t, int64(0), got.Session.MessageCount)
		assert.Equal(t, constant.SentinelTitle, got.Session.Title)
	})

	t.Run("auto-title can fire again after clear", func(t *testing.T) {
		res, err := svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "user", Content: "fresh start"})
		require.NoError(t, err)
		assert.Equal(t, "fresh start", res.Session.Title)
	})

	t.Run("unknown id", func(t *testing.T) {
		err := svc.ClearSession(ctx, uuid.New())
		assertKind(t, err, apperror.KindNotFound)
	})
}

func TestSearchSessions(t *testing.T) {
	ctx := context.Background()
	svc := newChatService(t)

	titled, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{Title: "gopher meetup notes"})
	require.NoError(t, err)

	byContent, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{Title: "untitled things"})
	require.NoError(t, err)
	_, err = svc.AddMessage(ctx, byContent.Id, &dto.AddMessageRequest{Role: "user", Content: "what do gopher holes look like?"})
	require.NoError(t, err)

	both, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{Title: "gopher facts"})
	require.NoError(t, err)
	_, err = svc.AddMessage(ctx, both.Id, &dto.AddMessageRequest{Role: "assistant", Content: "gopher trivia follows"})
	require.NoError(t, err)

	deleted, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{Title: "gopher graveyard"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSession(ctx, deleted.Id))

	t.Run("unions title and content matches, deduplicated", func(t *testing.T) {
		res, err := svc.SearchSessions(ctx, "gopher", 10)
		require.NoError(t, err)
		assert.Equal(t, 3, res.TotalFound)

		ids := make(map[uuid.UUID]int)
		for _, s := range res.Sessions {
			ids[s.Id]++
		}
		assert.Equal(t, 1, ids[titled.Id])
		assert.Equal(t, 1, ids[byContent.Id])
		assert.Equal(t, 1, ids[both.Id], "session matching both criteria appears exactly once")
		assert.NotContains(t, ids, deleted.Id)
	})

	t.Run("caps each match set before union", func(t *testing.T) {
		// Two title matches capped at 1, plus up to 1 content match: the
		// merged result may exceed the limit.
		res, err := svc.SearchSessions(ctx, "gopher", 1)
		require.NoError(t, err)
		assert.LessOrEqual(t, res.TotalFound, 2)
		assert.GreaterOrEqual(t, res.TotalFound, 1)
	})

	t.Run("treats LIKE wildcards literally", func(t *testing.T) {
		wild, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{Title: "100% done"})
		require.NoError(t, err)

		res, err := svc.SearchSessions(ctx, "100%", 10)
		require.NoError(t, err)
		require.Equal(t, 1, res.TotalFound)
		assert.Equal(t, wild.Id, res.Sessions[0].Id)

		res, err = svc.SearchSessions(ctx, "0%_d", 10)
		require.NoError(t, err)
		assert.Equal(t, 0, res.TotalFound)
	})
}

func TestTemplates(t *testing.T) {
	ctx := context.Background()
	svc := newChatService(t)

	t.Run("validation", func(t *testing.T) {
		_, err := svc.CreateTemplate(ctx, &dto.CreateTemplateRequest{SystemPrompt: "p"})
		assertKind(t, err, apperror.KindInvalidArgument)

		_, err = svc.CreateTemplate(ctx, &dto.CreateTemplateRequest{Name: "n"})
		assertKind(t, err, apperror.KindInvalidArgument)
	})

	t.Run("defaults empty collections", func(t *testing.T) {
		template, err := svc.CreateTemplate(ctx, &dto.CreateTemplateRequest{
			Name:         "Minimal",
			SystemPrompt: "Be terse.",
		})
		require.NoError(t, err)
		assert.NotNil(t, template.Tags)
		assert.Empty(t, template.Tags)
		assert.Empty(t, template.InitialMessages)
		assert.True(t, template.IsPublic)
	})

	t.Run("lists public templates newest first", func(t *testing.T) {
		_, err := svc.CreateTemplate(ctx, &dto.CreateTemplateRequest{
			Name:         "Second",
			SystemPrompt: "p",
			Tags:         []string{"demo"},
		})
		require.NoError(t, err)

		templates, err := svc.GetTemplates(ctx)
		require.NoError(t, err)
		require.Len(t, templates, 2)
		assert.Equal(t, "Second", templates[0].Name)
		assert.Equal(t, []string{"demo"}, templates[0].Tags)
	})
}

// The end-to-end scenario: sentinel title, auto-title on the first user
// message, no retitle afterwards.
func TestSessionLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	svc := newChatService(t)

	session, err := svc.CreateSession(ctx, &dto.CreateSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "New Chat", session.Title)
	assert.Equal(t, int64(0), session.MessageCount)

	content := "Hello there, how are you today? I wanted to ask about something specific"
	afterUser, err := svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "user", Content: content})
	require.NoError(t, err)
	assert.Equal(t, content[:50]+"...", afterUser.Session.Title)

	afterAssistant, err := svc.AddMessage(ctx, session.Id, &dto.AddMessageRequest{Role: "assistant", Content: "I'm doing well!"})
	require.NoError(t, err)
	assert.Equal(t, afterUser.Session.Title, afterAssistant.Session.Title)
	assert.Equal(t, int64(2), afterAssistant.Session.MessageCount)
}
