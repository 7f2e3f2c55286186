// Package smtp2go sends email through the SMTP2GO REST API.
package smtp2go

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

const defaultBaseURL = "https://api.smtp2go.com"

// Config holds the SMTP2GO credentials. BaseURL overrides the API host,
// mainly for tests.
type Config struct {
	APIKey  string
	BaseURL string
}

// Provider sends EmailMessage payloads via SMTP2GO. There is no
// per-message status polling, so FetchStatus returns nil.
type Provider struct {
	logger     *slog.Logger
	httpClient *http.Client
	cfg        Config
	url        string
}

// New creates an SMTP2GO provider. httpClient may be nil.
func New(logger *slog.Logger, cfg Config, httpClient *http.Client) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("smtp2go: APIKey is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{
		logger:     logger.With("provider", "smtp2go"),
		httpClient: httpClient,
		cfg:        cfg,
		url:        strings.TrimRight(baseURL, "/") + "/v3/email/send",
	}, nil
}

func (p *Provider) Name() string { return "smtp2go" }

type sendRequest struct {
	Sender   string   `json:"sender"`
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	HTMLBody string   `json:"html_body"`
}

func (p *Provider) Send(ctx context.Context, msg domain.Message) domain.DeliveryResult {
	email, ok := msg.(domain.EmailMessage)
	if !ok {
		return domain.Fail(fmt.Sprintf("Unsupported message type: %T", msg), "")
	}

	sender := email.FromEmail
	if email.FromName != "" {
		sender = fmt.Sprintf("%s <%s>", email.FromName, email.FromEmail)
	}

	payload := sendRequest{
		Sender:   sender,
		To:       []string{email.To},
		Subject:  email.Subject,
		HTMLBody: email.HTMLContent,
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return domain.Fail(fmt.Sprintf("failed to encode SMTP2GO request: %v", err), "")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(encoded))
	if err != nil {
		return domain.Fail(fmt.Sprintf("failed to build SMTP2GO request: %v", err), "")
	}
	req.Header.Set("X-Smtp2go-Api-Key", p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.ErrorContext(ctx, "SMTP2GO request failed", "error", err)
		return domain.Fail(fmt.Sprintf("SMTP2GO request failed: %v", err), "")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.logger.InfoContext(ctx, "email sent via SMTP2GO", "to", email.To)
		return domain.Ok(domain.StatusSent, "")
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	p.logger.ErrorContext(ctx, "SMTP2GO send failed", "status_code", resp.StatusCode, "body", string(body))
	return domain.Fail(fmt.Sprintf("SMTP2GO returned status %d", resp.StatusCode), strconv.Itoa(resp.StatusCode))
}

// FetchStatus always returns nil: SMTP2GO has no per-message polling.
func (p *Provider) FetchStatus(ctx context.Context, externalID string) *domain.DeliveryResult {
	return nil
}
