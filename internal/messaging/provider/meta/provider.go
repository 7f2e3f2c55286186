// Package meta sends WhatsApp messages through the Meta Cloud API.
package meta

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
	defaultBaseURL    = "https://graph.facebook.com"
	defaultAPIVersion = "v19.0"

	// MaxBodyChars is the Cloud API text body limit; longer bodies are
	// truncated.
	MaxBodyChars = 4096
)

// Config holds the Meta Cloud API credentials. BaseURL overrides the API
// host, mainly for tests.
type Config struct {
	PhoneNumberID string
	AccessToken   string
	APIVersion    string
	BaseURL       string
}

// Provider sends WhatsApp text, media and template messages via the Meta
// Cloud API. Status tracking is webhook-only, so FetchStatus returns nil.
//
// Templates use MetaWhatsAppTemplate, not WhatsAppTemplate: Meta's
// template payload differs from Twilio's Content API.
type Provider struct {
	logger     *slog.Logger
	httpClient *http.Client
	cfg        Config
	url        string
}

// New creates a Meta Cloud API provider. httpClient may be nil.
func New(logger *slog.Logger, cfg Config, httpClient *http.Client) (*Provider, error) {
	if cfg.PhoneNumberID == "" {
		return nil, errors.New("meta: PhoneNumberID is required")
	}
	if cfg.AccessToken == "" {
		return nil, errors.New("meta: AccessToken is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{
		logger:     logger.With("provider", "meta_whatsapp"),
		httpClient: httpClient,
		cfg:        cfg,
		url:        fmt.Sprintf("%s/%s/%s/messages", strings.TrimRight(baseURL, "/"), cfg.APIVersion, cfg.PhoneNumberID),
	}, nil
}

func (p *Provider) Name() string { return "meta_whatsapp" }

func (p *Provider) Send(ctx context.Context, msg domain.Message) domain.DeliveryResult {
	switch m := msg.(type) {
	case domain.WhatsAppText:
		return p.sendText(ctx, m)
	case domain.WhatsAppMedia:
		return p.sendMedia(ctx, m)
	case domain.MetaWhatsAppTemplate:
		return p.sendTemplate(ctx, m)
	case domain.WhatsAppTemplate:
		return domain.Fail("meta_whatsapp does not support WhatsAppTemplate; use MetaWhatsAppTemplate", "")
	default:
		return domain.Fail(fmt.Sprintf("Unsupported message type: %T", msg), "")
	}
}

// FetchStatus always returns nil: the Cloud API reports delivery status
// via webhooks only.
func (p *Provider) FetchStatus(ctx context.Context, externalID string) *domain.DeliveryResult {
	return nil
}

func (p *Provider) sendText(ctx context.Context, msg domain.WhatsAppText) domain.DeliveryResult {
	body := strings.TrimSpace(msg.Body)
	if body == "" {
		return domain.Fail("No message body provided", "")
	}
	if runes := []rune(body); len(runes) > MaxBodyChars {
		body = string(runes[:MaxBodyChars])
	}

	return p.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                normalizePhone(msg.To),
		"type":              "text",
		"text":              map[string]any{"body": body},
	})
}

func (p *Provider) sendMedia(ctx context.Context, msg domain.WhatsAppMedia) domain.DeliveryResult {
	if len(msg.MediaURLs) == 0 {
		return domain.Fail("No media URLs provided", "")
	}

	to := normalizePhone(msg.To)
	var last domain.DeliveryResult

	for i, mediaURL := range msg.MediaURLs {
		mime := ""
		if i < len(msg.MediaTypes) {
			mime = msg.MediaTypes[i]
		}
		metaType := mediaTypeFromMIME(mime)

		media := map[string]any{"link": mediaURL}
		// Captions are supported on image, video and document only, and
		// are attached to the first item.
		if msg.Caption != "" && i == 0 && metaType != "audio" {
			media["caption"] = msg.Caption
		}

		last = p.post(ctx, map[string]any{
			"messaging_product": "whatsapp",
			"to":                to,
			"type":              metaType,
			metaType:            media,
		})
		if !last.Succeeded() {
			return last
		}
	}

	return last
}

func (p *Provider) sendTemplate(ctx context.Context, msg domain.MetaWhatsAppTemplate) domain.DeliveryResult {
	template := map[string]any{
		"name":     msg.TemplateName,
		"language": map[string]any{"code": msg.LanguageCode},
	}
	if len(msg.Components) > 0 {
		template["components"] = msg.Components
	}

	return p.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                normalizePhone(msg.To),
		"type":              "template",
		"template":          template,
	})
}

// apiResponse covers both the success and error shapes of the Cloud API.
type apiResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *Provider) post(ctx context.Context, payload map[string]any) domain.DeliveryResult {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return domain.Fail(fmt.Sprintf("failed to encode Meta request: %v", err), "")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(encoded))
	if err != nil {
		return domain.Fail(fmt.Sprintf("failed to build Meta request: %v", err), "")
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.ErrorContext(ctx, "Meta Cloud API request failed", "error", err)
		return domain.Fail(fmt.Sprintf("Meta Cloud API request failed: %v", err), "")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Fail(fmt.Sprintf("failed to read Meta response: %v", err), "")
	}

	var data apiResponse
	if err := json.Unmarshal(body, &data); err != nil {
		p.logger.ErrorContext(ctx, "failed to parse Meta response", "error", err, "status_code", resp.StatusCode)
		return domain.Fail(fmt.Sprintf("failed to parse Meta response: %v", err), "")
	}

	if data.Error != nil {
		p.logger.ErrorContext(ctx, "Meta Cloud API error", "code", data.Error.Code, "message", data.Error.Message)
		return domain.Fail(data.Error.Message, fmt.Sprintf("%d", data.Error.Code))
	}

	externalID := ""
	if len(data.Messages) > 0 {
		externalID = data.Messages[0].ID
	}
	p.logger.InfoContext(ctx, "WhatsApp message sent via Meta Cloud API", "wamid", externalID)
	return domain.Ok(domain.StatusSent, externalID)
}

// normalizePhone strips the "whatsapp:" prefix and leading "+" signs: the
// Cloud API wants a bare phone number.
func normalizePhone(to string) string {
	if strings.HasPrefix(strings.ToLower(to), "whatsapp:") {
		to = to[len("whatsapp:"):]
	}
	return strings.TrimLeft(to, "+")
}

// mediaTypeFromMIME maps a MIME type to a Cloud API media type, defaulting
// to document.
func mediaTypeFromMIME(mime string) string {
	mime = strings.ToLower(mime)
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "image"
	case strings.HasPrefix(mime, "video/"):
		return "video"
	case strings.HasPrefix(mime, "audio/"):
		return "audio"
	default:
		return "document"
	}
}
