package twilio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/loopmsg/messaging-gateway/internal/messaging/domain"
)

// MaxWhatsAppBodyChars is Twilio's body limit for WhatsApp messages;
// longer bodies are truncated.
const MaxWhatsAppBodyChars = 1532

// Config holds the credentials for the Twilio WhatsApp provider.
// WhatsAppNumber must be in "whatsapp:+E.164" form. BaseURL overrides the
// API host, mainly for tests.
type Config struct {
	AccountSID     string
	AuthToken      string
	WhatsAppNumber string
	StatusCallback string
	BaseURL        string
}

// WhatsAppProvider sends WhatsApp text, media and Content API template
// messages via the Twilio Messages API.
type WhatsAppProvider struct {
	client *restClient
	cfg    Config
}

// NewWhatsAppProvider creates a WhatsAppProvider. httpClient may be nil.
func NewWhatsAppProvider(logger *slog.Logger, cfg Config, httpClient *http.Client) (*WhatsAppProvider, error) {
	if cfg.WhatsAppNumber == "" {
		return nil, errors.New("twilio: WhatsAppNumber is required for message delivery")
	}
	l := logger.With("provider", "twilio_whatsapp")
	return &WhatsAppProvider{
		client: newRESTClient(l, cfg.AccountSID, cfg.AuthToken, cfg.BaseURL, httpClient),
		cfg:    cfg,
	}, nil
}

func (p *WhatsAppProvider) Name() string { return "twilio_whatsapp" }

func (p *WhatsAppProvider) Send(ctx context.Context, msg domain.Message) domain.DeliveryResult {
	switch m := msg.(type) {
	case domain.WhatsAppText:
		return p.sendText(ctx, m)
	case domain.WhatsAppMedia:
		return p.sendMedia(ctx, m)
	case domain.WhatsAppTemplate:
		return p.sendTemplate(ctx, m)
	case domain.MetaWhatsAppTemplate:
		return domain.Fail("twilio_whatsapp does not support MetaWhatsAppTemplate; use the Meta WhatsApp provider", "")
	default:
		return domain.Fail(fmt.Sprintf("Unsupported message type: %T", msg), "")
	}
}

// FetchStatus polls Twilio for the current message status. Unknown SIDs
// return nil.
func (p *WhatsAppProvider) FetchStatus(ctx context.Context, externalID string) *domain.DeliveryResult {
	return p.client.fetchMessage(ctx, externalID)
}

func (p *WhatsAppProvider) sendText(ctx context.Context, msg domain.WhatsAppText) domain.DeliveryResult {
	body := clampBody(msg.Body, MaxWhatsAppBodyChars)
	if body == "" {
		return domain.Fail("No message body provided", "")
	}

	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", p.cfg.WhatsAppNumber)
	form.Set("Body", body)
	p.addStatusCallback(form)

	return p.client.createMessage(ctx, form)
}

func (p *WhatsAppProvider) sendMedia(ctx context.Context, msg domain.WhatsAppMedia) domain.DeliveryResult {
	if len(msg.MediaURLs) == 0 {
		return domain.Fail("No media URLs provided", "")
	}

	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", p.cfg.WhatsAppNumber)
	for _, mediaURL := range msg.MediaURLs {
		form.Add("MediaUrl", mediaURL)
	}
	if caption := clampBody(msg.Caption, MaxWhatsAppBodyChars); caption != "" {
		form.Set("Body", caption)
	}
	p.addStatusCallback(form)

	return p.client.createMessage(ctx, form)
}

func (p *WhatsAppProvider) sendTemplate(ctx context.Context, msg domain.WhatsAppTemplate) domain.DeliveryResult {
	variables := msg.ContentVariables
	if variables == nil {
		variables = map[string]string{}
	}
	encoded, err := json.Marshal(variables)
	if err != nil {
		return domain.Fail(fmt.Sprintf("failed to encode content variables: %v", err), "")
	}

	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", p.cfg.WhatsAppNumber)
	form.Set("ContentSid", msg.ContentSID)
	form.Set("ContentVariables", string(encoded))
	p.addStatusCallback(form)

	return p.client.createMessage(ctx, form)
}

func (p *WhatsAppProvider) addStatusCallback(form url.Values) {
	if p.cfg.StatusCallback != "" {
		form.Set("StatusCallback", p.cfg.StatusCallback)
	}
}
