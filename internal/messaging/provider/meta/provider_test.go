package meta

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

	p, err := New(testLogger(), Config{
		PhoneNumberID: "1098765",
		AccessToken:   "token",
		BaseURL:       server.URL,
	}, server.Client())
	require.NoError(t, err)
	return p
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
	return payload
}

func TestNew_Validation(t *testing.T) {
	_, err := New(testLogger(), Config{AccessToken: "token"}, nil)
	assert.Error(t, err)

	_, err = New(testLogger(), Config{PhoneNumberID: "1098765"}, nil)
	assert.Error(t, err)
}

func TestSendText(t *testing.T) {
	var gotPayload map[string]any
	var gotPath, gotAuth string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotPayload = decodeBody(t, r)
		w.Write([]byte(`{"messages":[{"id":"wamid.ABC"}]}`))
	})

	result := p.Send(context.Background(), domain.WhatsAppText{To: "whatsapp:+5551998644323", Body: "ola"})

	assert.True(t, result.Succeeded())
	assert.Equal(t, domain.StatusSent, result.Status)
	assert.Equal(t, "wamid.ABC", result.ExternalID)

	assert.Equal(t, "/v19.0/1098765/messages", gotPath)
	assert.Equal(t, "Bearer token", gotAuth)
	assert.Equal(t, "whatsapp", gotPayload["messaging_product"])
	// The Cloud API wants a bare number.
	assert.Equal(t, "5551998644323", gotPayload["to"])
	assert.Equal(t, "text", gotPayload["type"])
	text := gotPayload["text"].(map[string]any)
	assert.Equal(t, "ola", text["body"])
}

func TestSendText_EmptyBody(t *testing.T) {
	called := false
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	result := p.Send(context.Background(), domain.WhatsAppText{To: "+5551998644323", Body: ""})

	assert.False(t, result.Succeeded())
	assert.Equal(t, "No message body provided", result.ErrorMessage)
	assert.False(t, called)
}

func TestSendText_APIError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":131026,"message":"Message undeliverable: recipient is not a valid WhatsApp user"}}`))
	})

	result := p.Send(context.Background(), domain.WhatsAppText{To: "+5551998644323", Body: "ola"})

	assert.False(t, result.Succeeded())
	assert.Equal(t, "131026", result.ErrorCode)
	assert.Contains(t, result.ErrorMessage, "not a valid WhatsApp user")
}

func TestSendMedia(t *testing.T) {
	var payloads []map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		payloads = append(payloads, decodeBody(t, r))
		w.Write([]byte(`{"messages":[{"id":"wamid.MEDIA"}]}`))
	})

	result := p.Send(context.Background(), domain.WhatsAppMedia{
		To:         "+5551998644323",
		MediaURLs:  []string{"https://example.com/a.jpg", "https://example.com/b.pdf"},
		MediaTypes: []string{"image/jpeg", "application/pdf"},
		Caption:    "see attached",
	})

	assert.True(t, result.Succeeded())
	require.Len(t, payloads, 2)

	assert.Equal(t, "image", payloads[0]["type"])
	image := payloads[0]["image"].(map[string]any)
	assert.Equal(t, "https://example.com/a.jpg", image["link"])
	assert.Equal(t, "see attached", image["caption"])

	assert.Equal(t, "document", payloads[1]["type"])
	doc := payloads[1]["document"].(map[string]any)
	assert.Equal(t, "https://example.com/b.pdf", doc["link"])
	_, hasCaption := doc["caption"]
	assert.False(t, hasCaption)
}

func TestSendMedia_StopsOnFirstFailure(t *testing.T) {
	calls := 0
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"error":{"code":100,"message":"Unsupported post request"}}`))
	})

	result := p.Send(context.Background(), domain.WhatsAppMedia{
		To:        "+5551998644323",
		MediaURLs: []string{"https://example.com/a.jpg", "https://example.com/b.jpg"},
	})

	assert.False(t, result.Succeeded())
	assert.Equal(t, 1, calls)
}

func TestSendTemplate(t *testing.T) {
	var gotPayload map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPayload = decodeBody(t, r)
		w.Write([]byte(`{"messages":[{"id":"wamid.TPL"}]}`))
	})

	result := p.Send(context.Background(), domain.MetaWhatsAppTemplate{
		To:           "+5551998644323",
		TemplateName: "order_update",
		LanguageCode: "pt_BR",
		Components: []map[string]any{
			{"type": "body", "parameters": []map[string]any{{"type": "text", "text": "Maria"}}},
		},
	})

	assert.True(t, result.Succeeded())
	assert.Equal(t, "wamid.TPL", result.ExternalID)
	assert.Equal(t, "template", gotPayload["type"])

	template := gotPayload["template"].(map[string]any)
	assert.Equal(t, "order_update", template["name"])
	language := template["language"].(map[string]any)
	assert.Equal(t, "pt_BR", language["code"])
	assert.NotNil(t, template["components"])
}

func TestSend_RejectsTwilioTemplate(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})

	result := p.Send(context.Background(), domain.WhatsAppTemplate{To: "+5551998644323", ContentSID: "HX1"})

	assert.False(t, result.Succeeded())
	assert.Contains(t, result.ErrorMessage, "MetaWhatsAppTemplate")
}

func TestFetchStatus_AlwaysNil(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.Nil(t, p.FetchStatus(context.Background(), "wamid.ABC"))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "5551998644323", normalizePhone("whatsapp:+5551998644323"))
	assert.Equal(t, "5551998644323", normalizePhone("+5551998644323"))
	assert.Equal(t, "5551998644323", normalizePhone("5551998644323"))
}

func TestMediaTypeFromMIME(t *testing.T) {
	assert.Equal(t, "image", mediaTypeFromMIME("image/png"))
	assert.Equal(t, "video", mediaTypeFromMIME("video/mp4"))
	assert.Equal(t, "audio", mediaTypeFromMIME("audio/ogg"))
	assert.Equal(t, "document", mediaTypeFromMIME("application/pdf"))
	assert.Equal(t, "document", mediaTypeFromMIME(""))
}
