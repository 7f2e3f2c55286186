package twilio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/loopmsg/messaging-gateway/internal/messaging/domain"
)

// MaxSMSChars is Twilio's body limit for SMS; longer bodies are truncated.
const MaxSMSChars = 1600

// SMSConfig holds the credentials for the Twilio SMS provider. FromNumber
// is E.164, e.g. "+14155238886".
type SMSConfig struct {
	AccountSID     string
	AuthToken      string
	FromNumber     string
	StatusCallback string
	BaseURL        string
}

// SMSProvider sends plain SMS messages via the Twilio Messages API. It
// shares the status translation table with WhatsAppProvider.
type SMSProvider struct {
	client *restClient
	cfg    SMSConfig
}

// NewSMSProvider creates an SMSProvider. httpClient may be nil.
func NewSMSProvider(logger *slog.Logger, cfg SMSConfig, httpClient *http.Client) (*SMSProvider, error) {
	if cfg.FromNumber == "" {
		return nil, errors.New("twilio: FromNumber is required for SMS delivery")
	}
	l := logger.With("provider", "twilio_sms")
	return &SMSProvider{
		client: newRESTClient(l, cfg.AccountSID, cfg.AuthToken, cfg.BaseURL, httpClient),
		cfg:    cfg,
	}, nil
}

func (p *SMSProvider) Name() string { return "twilio_sms" }

func (p *SMSProvider) Send(ctx context.Context, msg domain.Message) domain.DeliveryResult {
	sms, ok := msg.(domain.SMSMessage)
	if !ok {
		return domain.Fail(fmt.Sprintf("Unsupported message type: %T", msg), "")
	}

	body := clampBody(sms.Body, MaxSMSChars)
	if body == "" {
		return domain.Fail("No message body provided", "")
	}

	form := url.Values{}
	form.Set("To", sms.To)
	form.Set("From", p.cfg.FromNumber)
	form.Set("Body", body)
	if p.cfg.StatusCallback != "" {
		form.Set("StatusCallback", p.cfg.StatusCallback)
	}

	return p.client.createMessage(ctx, form)
}

// FetchStatus polls Twilio for the current SMS delivery status.
func (p *SMSProvider) FetchStatus(ctx context.Context, externalID string) *domain.DeliveryResult {
	return p.client.fetchMessage(ctx, externalID)
}

// clampBody trims the body and truncates it to max characters.
func clampBody(body string, max int) string {
	body = strings.TrimSpace(body)
	if runes := []rune(body); len(runes) > max {
		return string(runes[:max])
	}
	return body
}
