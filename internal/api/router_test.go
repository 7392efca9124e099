package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codeit-chatbot/internal/api/handlers"
	"codeit-chatbot/internal/dto"
	"codeit-chatbot/internal/models"
	"codeit-chatbot/internal/repository"
	"codeit-chatbot/internal/service"
	"codeit-chatbot/pkg/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type resolverFunc func(ctx context.Context, question string, history []models.Turn) (string, error)

func (f resolverFunc) Resolve(ctx context.Context, question string, history []models.Turn) (string, error) {
	return f(ctx, question, history)
}

func newTestApp(t *testing.T, resolver service.Resolver, cors config.CORSConfig) *fiber.App {
	t.Helper()
	logger := zap.NewNop()
	conversations := service.NewConversationService(repository.NewSessionRepository(), logger)
	chat := service.NewChatService(resolver, conversations, logger)

	cfg := &config.Config{CORS: cors}
	return SetupRouter(handlers.NewChatHandler(chat, logger), cfg, logger)
}

func echoResolver() service.Resolver {
	return resolverFunc(func(_ context.Context, question string, _ []models.Turn) (string, error) {
		return "echo: " + question, nil
	})
}

func postChat(t *testing.T, app *fiber.App, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, echoResolver(), config.ParseCORS("*", "false"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestChatHistoryGrowsPerCall(t *testing.T) {
	app := newTestApp(t, echoResolver(), config.ParseCORS("*", "false"))

	status, body := postChat(t, app, `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, status, string(body))
	var first dto.ChatResponse
	require.NoError(t, json.Unmarshal(body, &first))
	require.NotEmpty(t, first.SessionID)
	assert.Equal(t, "echo: hello", first.Reply)
	require.Len(t, first.History, 2)

	status, body = postChat(t, app, `{"message":"  again ","session_id":"`+first.SessionID+`"}`)
	require.Equal(t, http.StatusOK, status, string(body))
	var second dto.ChatResponse
	require.NoError(t, json.Unmarshal(body, &second))
	assert.Equal(t, first.SessionID, second.SessionID)
	require.Len(t, second.History, 4)

	var previous time.Time
	for i, turn := range second.History {
		wantRole := "user"
		if i%2 == 1 {
			wantRole = "assistant"
		}
		assert.Equal(t, wantRole, turn.Role)

		ts, err := time.Parse(time.RFC3339Nano, turn.Timestamp)
		require.NoError(t, err)
		assert.False(t, ts.Before(previous), "timestamps must not decrease")
		previous = ts
	}
	assert.Equal(t, "again", second.History[2].Content)
	assert.Equal(t, "echo: again", second.History[3].Content)
}

func TestChatAcceptsSessionIDAlias(t *testing.T) {
	app := newTestApp(t, echoResolver(), config.ParseCORS("*", "false"))

	status, body := postChat(t, app, `{"message":"hi","sessionId":"web-client"}`)
	require.Equal(t, http.StatusOK, status)

	var resp dto.ChatResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "web-client", resp.SessionID)
}

func TestChatValidation(t *testing.T) {
	app := newTestApp(t, echoResolver(), config.ParseCORS("*", "false"))

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"whitespace message", `{"message":"   "}`, http.StatusUnprocessableEntity},
		{"missing message", `{"session_id":"abc"}`, http.StatusUnprocessableEntity},
		{"malformed json", `{"message":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := postChat(t, app, tt.body)
			assert.Equal(t, tt.wantStatus, status)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &resp))
			assert.NotEmpty(t, resp.Detail)
		})
	}
}

func TestChatResolverFailure(t *testing.T) {
	app := newTestApp(t, resolverFunc(func(context.Context, string, []models.Turn) (string, error) {
		return "", errors.New("embedding backend down")
	}), config.ParseCORS("*", "false"))

	status, body := postChat(t, app, `{"message":"what is the refund policy"}`)
	assert.Equal(t, http.StatusInternalServerError, status)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, strings.HasPrefix(resp.Detail, "Failed to generate response: "))
	assert.Contains(t, resp.Detail, "embedding backend down")
}

func TestCORS(t *testing.T) {
	app := newTestApp(t, echoResolver(), config.ParseCORS("http://app.test", "true"))

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://app.test", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestCORSAllowsAnyMethodAndHeader(t *testing.T) {
	tests := []struct {
		name        string
		cors        config.CORSConfig
		wantMethods string
	}{
		{"wildcard origin", config.ParseCORS("*", "false"), "*"},
		{"credentialed origin", config.ParseCORS("http://app.test", "true"), "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, echoResolver(), tt.cors)

			req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
			req.Header.Set("Origin", "http://app.test")
			req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			req.Header.Set("Access-Control-Request-Headers", "Authorization, X-Session-Token")

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantMethods, resp.Header.Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Authorization, X-Session-Token", resp.Header.Get("Access-Control-Allow-Headers"))
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t, echoResolver(), config.ParseCORS("*", "false"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"detail"`)
}
