// Package sendgrid sends email through the SendGrid v3 mail send API.
package sendgrid

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

const defaultBaseURL = "https://api.sendgrid.com"

// Config holds the SendGrid credentials. BaseURL overrides the API host,
// mainly for tests.
type Config struct {
	APIKey  string
	BaseURL string
}

// Provider sends EmailMessage payloads via SendGrid. SendGrid reports
// bounces through its event webhook, so FetchStatus returns nil.
type Provider struct {
	logger     *slog.Logger
	httpClient *http.Client
	cfg        Config
	url        string
}

// New creates a SendGrid provider. httpClient may be nil.
func New(logger *slog.Logger, cfg Config, httpClient *http.Client) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("sendgrid: APIKey is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{
		logger:     logger.With("provider", "sendgrid"),
		httpClient: httpClient,
		cfg:        cfg,
		url:        strings.TrimRight(baseURL, "/") + "/v3/mail/send",
	}, nil
}

func (p *Provider) Name() string { return "sendgrid" }

// sendRequest is the v3 mail send payload.
type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (p *Provider) Send(ctx context.Context, msg domain.Message) domain.DeliveryResult {
	email, ok := msg.(domain.EmailMessage)
	if !ok {
		return domain.Fail(fmt.Sprintf("Unsupported message type: %T", msg), "")
	}

	payload := sendRequest{
		Personalizations: []personalization{{To: []emailAddress{{Email: email.To}}}},
		From:             emailAddress{Email: email.FromEmail, Name: email.FromName},
		Subject:          email.Subject,
		Content:          []content{{Type: "text/html", Value: email.HTMLContent}},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return domain.Fail(fmt.Sprintf("failed to encode SendGrid request: %v", err), "")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(encoded))
	if err != nil {
		return domain.Fail(fmt.Sprintf("failed to build SendGrid request: %v", err), "")
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.ErrorContext(ctx, "SendGrid request failed", "error", err)
		return domain.Fail(fmt.Sprintf("SendGrid request failed: %v", err), "")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.logger.InfoContext(ctx, "email sent via SendGrid", "to", email.To)
		return domain.Ok(domain.StatusSent, "")
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	p.logger.ErrorContext(ctx, "SendGrid send failed", "status_code", resp.StatusCode, "body", string(body))
	return domain.Fail(fmt.Sprintf("SendGrid returned status %d", resp.StatusCode), strconv.Itoa(resp.StatusCode))
}

// FetchStatus always returns nil: SendGrid has no per-message polling.
func (p *Provider) FetchStatus(ctx context.Context, externalID string) *domain.DeliveryResult {
	return nil
}
