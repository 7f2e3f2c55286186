// Package telegram sends messages through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/loopmsg/messaging-gateway/internal/messaging/domain"
)

const defaultBaseURL = "https://api.telegram.org"

// mediaEndpoints maps a TelegramMedia media type to its Bot API method.
var mediaEndpoints = map[string]string{
	"photo":    "sendPhoto",
	"document": "sendDocument",
	"video":    "sendVideo",
}

// Config holds the Bot API credentials. BaseURL overrides the API host,
// mainly for tests.
type Config struct {
	BotToken string
	BaseURL  string
}

// Provider sends text and media messages via the Telegram Bot API. The
// Bot API has no delivery receipts, so FetchStatus returns nil.
type Provider struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	botToken   string
}

// New creates a Telegram Bot API provider. httpClient may be nil.
func New(logger *slog.Logger, cfg Config, httpClient *http.Client) (*Provider, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("telegram: BotToken is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{
		logger:     logger.With("provider", "telegram"),
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		botToken:   cfg.BotToken,
	}, nil
}

func (p *Provider) Name() string { return "telegram" }

func (p *Provider) Send(ctx context.Context, msg domain.Message) domain.DeliveryResult {
	switch m := msg.(type) {
	case domain.TelegramText:
		return p.sendText(ctx, m)
	case domain.TelegramMedia:
		return p.sendMedia(ctx, m)
	default:
		return domain.Fail(fmt.Sprintf("Unsupported message type: %T", msg), "")
	}
}

// FetchStatus always returns nil: the Bot API has no status polling.
func (p *Provider) FetchStatus(ctx context.Context, externalID string) *domain.DeliveryResult {
	return nil
}

func (p *Provider) sendText(ctx context.Context, msg domain.TelegramText) domain.DeliveryResult {
	payload := map[string]any{
		"chat_id": msg.ChatID,
		"text":    msg.Body,
	}
	if msg.ParseMode != "" {
		payload["parse_mode"] = msg.ParseMode
	}
	return p.post(ctx, "sendMessage", payload)
}

func (p *Provider) sendMedia(ctx context.Context, msg domain.TelegramMedia) domain.DeliveryResult {
	endpoint, ok := mediaEndpoints[msg.MediaType]
	if !ok {
		return domain.Fail(fmt.Sprintf("Unsupported media type: %s", msg.MediaType), "unsupported_media_type")
	}

	payload := map[string]any{
		"chat_id":     msg.ChatID,
		msg.MediaType: msg.MediaURL,
	}
	if msg.Caption != "" {
		payload["caption"] = msg.Caption
	}
	if msg.ParseMode != "" {
		payload["parse_mode"] = msg.ParseMode
	}
	return p.post(ctx, endpoint, payload)
}

// apiResponse is the Bot API envelope.
type apiResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

func (p *Provider) post(ctx context.Context, method string, payload map[string]any) domain.DeliveryResult {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return domain.Fail(fmt.Sprintf("failed to encode Telegram request: %v", err), "")
	}

	url := fmt.Sprintf("%s/bot%s/%s", p.baseURL, p.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return domain.Fail(fmt.Sprintf("failed to build Telegram request: %v", err), "")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.ErrorContext(ctx, "Telegram Bot API request failed", "error", err, "method", method)
		return domain.Fail(fmt.Sprintf("Telegram Bot API request failed: %v", err), "")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Fail(fmt.Sprintf("failed to read Telegram response: %v", err), "")
	}

	var data apiResponse
	if err := json.Unmarshal(body, &data); err != nil {
		p.logger.ErrorContext(ctx, "failed to parse Telegram response", "error", err, "method", method)
		return domain.Fail(fmt.Sprintf("failed to parse Telegram response: %v", err), "")
	}

	if !data.OK {
		description := data.Description
		if description == "" {
			description = "Unknown Telegram API error"
		}
		p.logger.ErrorContext(ctx, "Telegram API error", "error_code", data.ErrorCode, "description", description)
		code := ""
		if data.ErrorCode != 0 {
			code = strconv.Itoa(data.ErrorCode)
		}
		return domain.Fail(description, code)
	}

	externalID := ""
	if data.Result.MessageID != 0 {
		externalID = strconv.FormatInt(data.Result.MessageID, 10)
	}
	p.logger.InfoContext(ctx, "Telegram message sent", "method", method, "message_id", externalID)
	return domain.Ok(domain.StatusSent, externalID)
}
