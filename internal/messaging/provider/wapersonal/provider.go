// Package wapersonal sends WhatsApp messages through a WWjs adapter HTTP
// API (a personal WhatsApp session exposed over REST).
package wapersonal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/loopmsg/messaging-gateway/internal/messaging/domain"
)

const (
	// MaxBodyChars is the adapter's text limit. Unlike the Twilio
	// adapters, oversized bodies are rejected, not truncated.
	MaxBodyChars = 1532

	requestTimeout = 15 * time.Second
)

// Config holds the WWjs adapter connection details.
type Config struct {
	APIKey         string
	AdapterBaseURL string
}

// Provider sends text and media messages through the WWjs adapter. The
// adapter has no status polling, so FetchStatus returns nil.
type Provider struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// New creates a WWjs adapter provider. httpClient may be nil.
func New(logger *slog.Logger, cfg Config, httpClient *http.Client) (*Provider, error) {
	if cfg.AdapterBaseURL == "" {
		return nil, errors.New("wapersonal: AdapterBaseURL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Provider{
		logger:     logger.With("provider", "whatsapp_personal"),
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.AdapterBaseURL, "/"),
	}, nil
}

func (p *Provider) Name() string { return "whatsapp_personal" }

func (p *Provider) Send(ctx context.Context, msg domain.Message) domain.DeliveryResult {
	switch m := msg.(type) {
	case domain.WhatsAppText:
		return p.sendText(ctx, m)
	case domain.WhatsAppMedia:
		return p.sendMedia(ctx, m)
	case domain.WhatsAppTemplate, domain.MetaWhatsAppTemplate:
		return domain.Fail("WhatsApp Personal does not support template messages", "")
	default:
		return domain.Fail(fmt.Sprintf("Unsupported message type: %T", msg), "")
	}
}

// FetchStatus always returns nil: the adapter has no status polling.
func (p *Provider) FetchStatus(ctx context.Context, externalID string) *domain.DeliveryResult {
	return nil
}

func (p *Provider) sendText(ctx context.Context, msg domain.WhatsAppText) domain.DeliveryResult {
	body := strings.TrimSpace(msg.Body)
	if body == "" {
		return domain.Fail("Cannot send an empty message", "")
	}
	if len([]rune(body)) > MaxBodyChars {
		return domain.Fail(fmt.Sprintf("Message text exceeds %d characters", MaxBodyChars), "")
	}

	chatID := normalizeChatID(msg.To)
	if chatID == "" {
		return domain.Fail("Invalid phone number", "")
	}

	data, err := p.post(ctx, "/api/sendText", map[string]any{"chatId": chatID, "text": body})
	if err != nil {
		return domain.Fail(err.Error(), "")
	}

	id, errMsg := parseTextResponse(data)
	if errMsg != "" {
		return domain.Fail(errMsg, "")
	}
	return domain.Ok(domain.StatusSent, id)
}

func (p *Provider) sendMedia(ctx context.Context, msg domain.WhatsAppMedia) domain.DeliveryResult {
	if len(msg.MediaURLs) == 0 {
		return domain.Fail("No media URLs provided", "")
	}

	chatID := normalizeChatID(msg.To)
	if chatID == "" {
		return domain.Fail("Invalid phone number", "")
	}

	var errs []string
	externalID := ""

	// A caption goes out as a separate text message first; if that works
	// it is not repeated on the attachments.
	textSent := false
	if caption := strings.TrimSpace(msg.Caption); caption != "" {
		data, err := p.post(ctx, "/api/sendText", map[string]any{"chatId": chatID, "text": caption})
		if err != nil {
			errs = append(errs, err.Error())
		} else if id, errMsg := parseTextResponse(data); errMsg != "" {
			errs = append(errs, errMsg)
		} else if id != "" {
			externalID = id
			textSent = true
		}
	}

	for i, mediaURL := range msg.MediaURLs {
		mimetype := "application/octet-stream"
		if i < len(msg.MediaTypes) && msg.MediaTypes[i] != "" {
			mimetype = msg.MediaTypes[i]
		}
		filename := ""
		if i < len(msg.MediaFilenames) {
			filename = msg.MediaFilenames[i]
		}

		file := map[string]any{"mimetype": mimetype, "url": mediaURL}
		if filename != "" {
			file["filename"] = filename
		}

		payload := map[string]any{"chatId": chatID, "file": file}
		if msg.Caption != "" && !textSent && i == 0 {
			payload["caption"] = msg.Caption
		}

		data, err := p.post(ctx, "/api/"+endpointForMIME(mimetype), payload)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		id, errMsg := parseMediaResponse(data)
		if errMsg != "" {
			errs = append(errs, errMsg)
			continue
		}
		if id != "" && externalID == "" {
			externalID = id
		}
	}

	if len(errs) > 0 && externalID == "" {
		return domain.Fail(strings.Join(errs, "; "), "")
	}

	// Partial success keeps the first external ID but still reports the
	// failed attachments.
	result := domain.DeliveryResult{Status: domain.StatusSent, ExternalID: externalID}
	if len(errs) > 0 {
		result.Status = domain.StatusFailed
		result.ErrorMessage = strings.Join(errs, "; ")
	}
	return result
}

// post sends a JSON request to the adapter and decodes the JSON response.
// Transport, HTTP and content-type failures come back as errors for the
// callers to fold into failed results.
func (p *Provider) post(ctx context.Context, path string, payload map[string]any) (map[string]any, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode adapter request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to build adapter request: %w", err)
	}
	req.Header.Set("X-Api-Key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.ErrorContext(ctx, "adapter request failed", "path", path, "error", err)
		return nil, errors.New("Network error communicating with adapter")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New("Network error communicating with adapter")
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("Adapter error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(strings.ToLower(ct), "application/json") {
		return nil, fmt.Errorf("Adapter returned unexpected content type: %s", ct)
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, errors.New("Adapter returned invalid JSON")
	}
	return data, nil
}

// normalizeChatID turns a phone number into a WhatsApp chat ID. Group
// JIDs ("...@g.us") pass through untouched. Returns "" when the number
// cannot form a valid E.164 candidate.
func normalizeChatID(phoneNumber string) string {
	trimmed := strings.TrimSpace(phoneNumber)

	if strings.HasSuffix(trimmed, "@g.us") {
		return trimmed
	}

	if strings.HasPrefix(strings.ToLower(trimmed), "whatsapp:") {
		trimmed = trimmed[len("whatsapp:"):]
	}

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" || d[0] == '0' {
		return ""
	}
	if len(d) < 2 || len(d) > 15 {
		return ""
	}
	return "+" + d
}

// endpointForMIME picks the adapter endpoint for an attachment.
func endpointForMIME(mimetype string) string {
	mime := strings.ToLower(mimetype)
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "sendImage"
	case strings.HasPrefix(mime, "video/"):
		return "sendVideo"
	case strings.HasPrefix(mime, "audio/"):
		return "sendVoice"
	default:
		return "sendFile"
	}
}

// parseTextResponse extracts the message ID from a sendText response, or
// an error message.
func parseTextResponse(data map[string]any) (id, errMsg string) {
	if adapterErr := extractAdapterError(data); adapterErr != "" {
		return "", adapterErr
	}

	if payload, ok := data["payload"].(map[string]any); ok {
		if sid := stringField(payload, "MessageSid", "Sid"); sid != "" {
			return sid, ""
		}
	}
	return "", "Adapter response missing message id"
}

// parseMediaResponse extracts the message ID from a media send response,
// or an error message.
func parseMediaResponse(data map[string]any) (id, errMsg string) {
	if adapterErr := extractAdapterError(data); adapterErr != "" {
		return "", adapterErr
	}

	switch raw := data["id"].(type) {
	case map[string]any:
		if nested := stringField(raw, "_serialized", "id"); nested != "" {
			return nested, ""
		}
		return "", "Adapter response missing message id"
	case string:
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			return trimmed, ""
		}
	}

	if payload, ok := data["payload"].(map[string]any); ok {
		if sid := stringField(payload, "MessageSid", "Sid"); sid != "" {
			return sid, ""
		}
	}
	return "", "Adapter response missing message id"
}

// extractAdapterError pulls an error message from an adapter JSON body.
// Only top-level "error"/"detail" are checked; "message" is only read
// inside nested error objects to avoid false positives on success
// responses that carry a top-level "message".
func extractAdapterError(data map[string]any) string {
	for _, key := range []string{"error", "detail"} {
		switch value := data[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		case map[string]any:
			if nested := stringField(value, "message", "detail", "error"); nested != "" {
				return nested
			}
		}
	}
	return ""
}

// stringField returns the first non-empty trimmed string among keys.
func stringField(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := data[key].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
