package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dyor-ai-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatTranslatesHistory(t *testing.T) {
	var captured geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash-exp:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]string{{"text": "Hi "}, {"text": "there"}},
				}},
			},
			"usageMetadata": map[string]int{
				"promptTokenCount":     12,
				"candidatesTokenCount": 3,
				"totalTokenCount":      15,
			},
		})
	}))
	defer server.Close()

	provider := NewGeminiProvider("test-key", server.URL, "gemini-2.0-flash-exp")

	result, err := provider.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "Be brief."},
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hey"},
		{Role: "user", Content: "Bye"},
	}, llm.WithTemperature(0.2), llm.WithMaxTokens(100))
	require.NoError(t, err)

	// System turn is folded into the first user turn.
	require.Len(t, captured.Contents, 3)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, "Be brief.\n\nHello", captured.Contents[0].Parts[0].Text)

	// Assistant maps to the "model" role.
	assert.Equal(t, "model", captured.Contents[1].Role)
	assert.Equal(t, "Hey", captured.Contents[1].Parts[0].Text)
	assert.Equal(t, "user", captured.Contents[2].Role)

	assert.Equal(t, 0.2, captured.GenerationConfig.Temperature)
	assert.Equal(t, 100, captured.GenerationConfig.MaxOutputTokens)
	assert.Equal(t, 0.8, captured.GenerationConfig.TopP)
	assert.Equal(t, 10, captured.GenerationConfig.TopK)

	// Multi-part candidates concatenate; usage is mapped through.
	assert.Equal(t, "Hi there", result.Content)
	assert.Equal(t, 12, result.Usage.PromptTokens)
	assert.Equal(t, 3, result.Usage.CompletionTokens)
	assert.Equal(t, 15, result.Usage.TotalTokens)
}

func TestChatSystemOnlyHistory(t *testing.T) {
	var captured geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]string{{"text": "ok"}},
				}},
			},
		})
	}))
	defer server.Close()

	provider := NewGeminiProvider("k", server.URL, "gemini-1.5-pro")

	_, err := provider.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "Only instructions."},
	})
	require.NoError(t, err)

	// With no user turn to attach to, the system text becomes a user turn.
	require.Len(t, captured.Contents, 1)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, "Only instructions.", captured.Contents[0].Parts[0].Text)
}

func TestChatAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
	}))
	defer server.Close()

	provider := NewGeminiProvider("bad-key", server.URL, "gemini-1.5-pro")

	_, err := provider.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestChatEmptyHistory(t *testing.T) {
	provider := NewGeminiProvider("k", "http://unused.invalid", "m")
	_, err := provider.Chat(context.Background(), nil)
	require.Error(t, err)
}

func TestGenerateWrapsPrompt(t *testing.T) {
	var captured geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]string{{"text": "pong"}},
				}},
			},
		})
	}))
	defer server.Close()

	provider := NewGeminiProvider("k", server.URL, "gemini-1.5-pro")

	result, err := provider.Generate(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", result.Content)
	require.Len(t, captured.Contents, 1)
	assert.Equal(t, "ping", captured.Contents[0].Parts[0].Text)
}

func TestListModelsAndTestConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"models": []map[string]string{
				{"name": "models/gemini-1.5-pro", "displayName": "Gemini 1.5 Pro"},
				{"name": "models/gemini-2.0-flash-exp", "displayName": "Gemini 2.0 Flash"},
			},
		})
	}))
	defer server.Close()

	provider := NewGeminiProvider("k", server.URL, "gemini-1.5-pro")

	models, err := provider.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "models/gemini-1.5-pro", models[0].Name)

	assert.NoError(t, provider.TestConnection(context.Background()))
}

func TestTestConnectionEmptyCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"models": []interface{}{}})
	}))
	defer server.Close()

	provider := NewGeminiProvider("k", server.URL, "gemini-1.5-pro")
	assert.Error(t, provider.TestConnection(context.Background()))
}
