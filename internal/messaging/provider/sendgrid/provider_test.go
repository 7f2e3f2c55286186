package sendgrid

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

	p, err := New(testLogger(), Config{APIKey: "sg-key", BaseURL: server.URL}, server.Client())
	require.NoError(t, err)
	return p
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(testLogger(), Config{}, nil)
	assert.Error(t, err)
}

func TestSend(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload sendRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusAccepted)
	})

	result := p.Send(context.Background(), domain.EmailMessage{
		To:          "user@example.com",
		Subject:     "Pedido confirmado",
		HTMLContent: "<p>Obrigado!</p>",
		FromEmail:   "noreply@example.com",
		FromName:    "Loja",
	})

	assert.True(t, result.Succeeded())
	assert.Equal(t, domain.StatusSent, result.Status)
	assert.Empty(t, result.ExternalID)

	assert.Equal(t, "/v3/mail/send", gotPath)
	assert.Equal(t, "Bearer sg-key", gotAuth)
	require.Len(t, gotPayload.Personalizations, 1)
	require.Len(t, gotPayload.Personalizations[0].To, 1)
	assert.Equal(t, "user@example.com", gotPayload.Personalizations[0].To[0].Email)
	assert.Equal(t, "noreply@example.com", gotPayload.From.Email)
	assert.Equal(t, "Loja", gotPayload.From.Name)
	assert.Equal(t, "Pedido confirmado", gotPayload.Subject)
	require.Len(t, gotPayload.Content, 1)
	assert.Equal(t, "text/html", gotPayload.Content[0].Type)
	assert.Equal(t, "<p>Obrigado!</p>", gotPayload.Content[0].Value)
}

func TestSend_APIError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"message":"The provided authorization grant is invalid"}]}`))
	})

	result := p.Send(context.Background(), domain.EmailMessage{
		To: "user@example.com", FromEmail: "noreply@example.com",
	})

	assert.False(t, result.Succeeded())
	assert.Equal(t, "401", result.ErrorCode)
	assert.Contains(t, result.ErrorMessage, "401")
}

func TestSend_RejectsNonEmail(t *testing.T) {
	called := false
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	result := p.Send(context.Background(), domain.SMSMessage{To: "+5511999999999", Body: "oi"})

	assert.False(t, result.Succeeded())
	assert.Contains(t, result.ErrorMessage, "Unsupported message type")
	assert.False(t, called)
}

func TestFetchStatus_AlwaysNil(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.Nil(t, p.FetchStatus(context.Background(), "any"))
}
