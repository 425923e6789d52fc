package service

import (
	"context"
	"encoding/json"
	"testing"

	"dyor-ai-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	payloads [][]byte
}

func (p *capturingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestAgentProcessMessage(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	svc := NewAgentService(pub, testLogger{})

	t.Run("rejects empty messages", func(t *testing.T) {
		_, err := svc.ProcessMessage(ctx, "c1", "   ")
		assertKind(t, err, apperror.KindInvalidArgument)
	})

	t.Run("greeting", func(t *testing.T) {
		res, err := svc.ProcessMessage(ctx, "c1", "Hello agent")
		require.NoError(t, err)
		assert.Equal(t, "agent", res.Type)
		assert.Contains(t, res.Content, "I'm Dyor AI")
	})

	t.Run("status keyword", func(t *testing.T) {
		res, err := svc.ProcessMessage(ctx, "c1", "what is your status?")
		require.NoError(t, err)
		assert.Contains(t, res.Content, "I'm currently thinking")
	})

	t.Run("help keyword", func(t *testing.T) {
		res, err := svc.ProcessMessage(ctx, "c1", "help me out")
		require.NoError(t, err)
		assert.Contains(t, res.Content, "Web browsing and research")
	})

	t.Run("echo fallback", func(t *testing.T) {
		res, err := svc.ProcessMessage(ctx, "c1", "make a sandwich")
		require.NoError(t, err)
		assert.Contains(t, res.Content, "I understand you said: 'make a sandwich'")
	})

	t.Run("publishes every agent response", func(t *testing.T) {
		require.NotEmpty(t, pub.payloads)
		var evt AgentEventMessage
		require.NoError(t, json.Unmarshal(pub.payloads[len(pub.payloads)-1], &evt))
		assert.Equal(t, "c1", evt.ClientId)
		assert.Equal(t, "agent", evt.Message.Type)
	})
}

func TestAgentHistory(t *testing.T) {
	ctx := context.Background()
	svc := NewAgentService(nil, testLogger{})

	_, err := svc.ProcessMessage(ctx, "client-a", "hello")
	require.NoError(t, err)
	_, err = svc.ProcessMessage(ctx, "client-a", "tell me more")
	require.NoError(t, err)

	t.Run("interleaves user and agent turns with sequential ids", func(t *testing.T) {
		history := svc.GetHistory("client-a")
		require.Len(t, history, 4)
		for i, msg := range history {
			assert.Equal(t, i+1, msg.Id)
		}
		assert.Equal(t, "user", history[0].Type)
		assert.Equal(t, "agent", history[1].Type)
		assert.Equal(t, "tell me more", history[2].Content)
	})

	t.Run("conversations are isolated per client", func(t *testing.T) {
		assert.Empty(t, svc.GetHistory("client-b"))
	})

	t.Run("status reflects message count", func(t *testing.T) {
		status := svc.GetStatus("client-a")
		assert.Equal(t, AgentStatusIdle, status.Status)
		assert.Equal(t, 4, status.MessageCount)
		assert.NotEmpty(t, status.LastActivity)
	})

	t.Run("clear resets the conversation", func(t *testing.T) {
		svc.ClearHistory("client-a")
		assert.Empty(t, svc.GetHistory("client-a"))
		assert.Equal(t, 0, svc.GetStatus("client-a").MessageCount)

		res, err := svc.ProcessMessage(ctx, "client-a", "hello again")
		require.NoError(t, err)
		assert.Equal(t, 2, res.Id)
	})
}
