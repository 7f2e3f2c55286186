package smtp2go

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopmsg/messaging-gateway/internal/messaging/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := New(testLogger(), Config{APIKey: "s2g-key", BaseURL: server.URL}, server.Client())
	require.NoError(t, err)
	return p
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(testLogger(), Config{}, nil)
	assert.Error(t, err)
}

func TestSend(t *testing.T) {
	var gotPath, gotKey string
	var gotPayload sendRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Smtp2go-Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte(`{"data":{"succeeded":1}}`))
	})

	result := p.Send(context.Background(), domain.EmailMessage{
		To:          "user@example.com",
		Subject:     "Bem-vindo",
		HTMLContent: "<p>Oi</p>",
		FromEmail:   "noreply@example.com",
		FromName:    "Loja",
	})

	assert.True(t, result.Succeeded())
	assert.Equal(t, "/v3/email/send", gotPath)
	assert.Equal(t, "s2g-key", gotKey)
	assert.Equal(t, "Loja <noreply@example.com>", gotPayload.Sender)
	assert.Equal(t, []string{"user@example.com"}, gotPayload.To)
	assert.Equal(t, "Bem-vindo", gotPayload.Subject)
	assert.Equal(t, "<p>Oi</p>", gotPayload.HTMLBody)
}

func TestSend_SenderWithoutName(t *testing.T) {
	var gotPayload sendRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte(`{"data":{"succeeded":1}}`))
	})

	result := p.Send(context.Background(), domain.EmailMessage{
		To:        "user@example.com",
		FromEmail: "noreply@example.com",
	})

	assert.True(t, result.Succeeded())
	assert.Equal(t, "noreply@example.com", gotPayload.Sender)
}

func TestSend_APIError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"data":{"error":"invalid api key"}}`))
	})

	result := p.Send(context.Background(), domain.EmailMessage{
		To: "user@example.com", FromEmail: "noreply@example.com",
	})

	assert.False(t, result.Succeeded())
	assert.Equal(t, "403", result.ErrorCode)
}

func TestSend_RejectsNonEmail(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})

	result := p.Send(context.Background(), domain.TelegramText{ChatID: "1", Body: "hi"})

	assert.False(t, result.Succeeded())
	assert.Contains(t, result.ErrorMessage, "Unsupported message type")
}

func TestFetchStatus_AlwaysNil(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.Nil(t, p.FetchStatus(context.Background(), "any"))
}
