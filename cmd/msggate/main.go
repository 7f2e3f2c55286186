package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/loopmsg/messaging-gateway/internal/messaging/commlog"
	commlogpg "github.com/loopmsg/messaging-gateway/internal/messaging/commlog/postgres"
	"github.com/loopmsg/messaging-gateway/internal/messaging/domain"
	"github.com/loopmsg/messaging-gateway/internal/messaging/gateway"
	"github.com/loopmsg/messaging-gateway/internal/messaging/phone"
	"github.com/loopmsg/messaging-gateway/internal/messaging/provider"
	"github.com/loopmsg/messaging-gateway/internal/messaging/provider/meta"
	"github.com/loopmsg/messaging-gateway/internal/messaging/provider/sendgrid"
	"github.com/loopmsg/messaging-gateway/internal/messaging/provider/smtp2go"
	"github.com/loopmsg/messaging-gateway/internal/messaging/provider/telegram"
	"github.com/loopmsg/messaging-gateway/internal/messaging/provider/twilio"
	"github.com/loopmsg/messaging-gateway/internal/messaging/provider/wapersonal"
	"github.com/loopmsg/messaging-gateway/internal/platform/config"
	"github.com/loopmsg/messaging-gateway/internal/platform/logger"
)

// msggate sends one message through the configured provider, or polls the
// status of a previously sent message. It is the operational entry point
// for smoke-testing provider credentials and the phone fallback path.
func main() {
	providerName := flag.String("provider", "", "provider to use (overrides APP_PROVIDER)")
	to := flag.String("to", "", "destination: phone number, chat ID or email address")
	body := flag.String("body", "", "message body")
	subject := flag.String("subject", "", "email subject (email providers only)")
	fallback := flag.Bool("fallback", true, "retry once with the alternate phone encoding on invalid-number errors")
	record := flag.Bool("record", false, "record the outcome in the communication log (needs APP_POSTGRES_DSN)")
	statusID := flag.String("status", "", "poll the status of this provider message ID instead of sending")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel).With("service", "msggate")

	name := cfg.Provider
	if *providerName != "" {
		name = *providerName
	}

	p, err := buildProvider(name, cfg, log)
	if err != nil {
		log.Error("failed to initialize provider", "provider", name, "error", err)
		os.Exit(1)
	}

	gw := gateway.New(p, log, gateway.WithCountry(cfg.DefaultCountry))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *statusID != "" {
		result := gw.FetchStatus(ctx, *statusID)
		if result == nil {
			fmt.Printf("no status available for %s\n", *statusID)
			return
		}
		fmt.Printf("status=%s external_id=%s error=%q\n", result.Status, result.ExternalID, result.ErrorMessage)
		return
	}

	if *to == "" || *body == "" {
		fmt.Fprintln(os.Stderr, "both -to and -body are required to send")
		os.Exit(1)
	}

	msg, err := buildMessage(name, cfg, *to, *subject, *body)
	if err != nil {
		log.Error("failed to build message", "error", err)
		os.Exit(1)
	}

	result := gw.Send(ctx, msg, gateway.SendOptions{PhoneFallback: *fallback})

	if *record {
		if err := recordOutcome(ctx, cfg, name, *to, result); err != nil {
			log.Error("failed to record communication log entry", "error", err)
		}
	}

	if result.Succeeded() {
		fmt.Printf("sent: status=%s external_id=%s", result.Status(), result.ExternalID())
		if result.UsedFallbackNumber != "" {
			fmt.Printf(" fallback_number=%s", result.UsedFallbackNumber)
		}
		fmt.Println()
		return
	}

	fmt.Printf("failed: status=%s code=%s error=%q\n", result.Status(), result.ErrorCode(), result.ErrorMessage())
	os.Exit(1)
}

// recordOutcome persists the delivery outcome so later status polls can be
// applied against it with the precedence rule.
func recordOutcome(ctx context.Context, cfg *config.Config, providerName, recipient string, result domain.GatewayResult) error {
	pool, err := commlogpg.NewDBPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	entry := &commlog.Entry{
		Channel:   providerName,
		Recipient: recipient,
		Status:    result.Status(),
	}
	if id := result.ExternalID(); id != "" {
		entry.ExternalID = &id
	}
	if code := result.ErrorCode(); code != "" {
		entry.ErrorCode = &code
	}
	if msg := result.ErrorMessage(); msg != "" {
		entry.ErrorMessage = &msg
	}
	if result.UsedFallbackNumber != "" {
		fallbackNumber := result.UsedFallbackNumber
		entry.UsedFallbackNumber = &fallbackNumber
	}

	return commlogpg.NewRepository(pool).Create(ctx, entry)
}

func buildProvider(name string, cfg *config.Config, log *slog.Logger) (provider.Provider, error) {
	switch name {
	case "twilio_whatsapp":
		return twilio.NewWhatsAppProvider(log, twilio.Config{
			AccountSID:     cfg.TwilioAccountSID,
			AuthToken:      cfg.TwilioAuthToken,
			WhatsAppNumber: cfg.TwilioWhatsAppNumber,
			StatusCallback: cfg.TwilioStatusCallback,
		}, nil)
	case "twilio_sms":
		return twilio.NewSMSProvider(log, twilio.SMSConfig{
			AccountSID:     cfg.TwilioAccountSID,
			AuthToken:      cfg.TwilioAuthToken,
			FromNumber:     cfg.TwilioSMSNumber,
			StatusCallback: cfg.TwilioStatusCallback,
		}, nil)
	case "meta_whatsapp":
		return meta.New(log, meta.Config{
			PhoneNumberID: cfg.MetaPhoneNumberID,
			AccessToken:   cfg.MetaAccessToken,
		}, nil)
	case "whatsapp_personal":
		return wapersonal.New(log, wapersonal.Config{
			APIKey:         cfg.WAAdapterAPIKey,
			AdapterBaseURL: cfg.WAAdapterBaseURL,
		}, nil)
	case "telegram":
		return telegram.New(log, telegram.Config{BotToken: cfg.TelegramBotToken}, nil)
	case "sendgrid":
		return sendgrid.New(log, sendgrid.Config{APIKey: cfg.SendGridAPIKey}, nil)
	case "smtp2go":
		return smtp2go.New(log, smtp2go.Config{APIKey: cfg.SMTP2GoAPIKey}, nil)
	case "mock":
		return provider.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// buildMessage shapes the destination for the chosen channel. Phone-based
// channels get the destination normalized to E.164 first.
func buildMessage(providerName string, cfg *config.Config, to, subject, body string) (domain.Message, error) {
	switch providerName {
	case "twilio_whatsapp":
		return domain.WhatsAppText{To: phone.FormatWhatsAppNumber(to), Body: body}, nil
	case "meta_whatsapp", "whatsapp_personal", "mock":
		return domain.WhatsAppText{To: phone.Normalize(to, cfg.DefaultCountry), Body: body}, nil
	case "twilio_sms":
		return domain.SMSMessage{To: phone.Normalize(to, cfg.DefaultCountry), Body: body}, nil
	case "telegram":
		return domain.TelegramText{ChatID: to, Body: body}, nil
	case "sendgrid", "smtp2go":
		if cfg.FromEmail == "" {
			return nil, fmt.Errorf("APP_FROM_EMAIL must be set for email providers")
		}
		return domain.EmailMessage{
			To:          to,
			Subject:     subject,
			HTMLContent: body,
			FromEmail:   cfg.FromEmail,
			FromName:    cfg.FromName,
		}, nil
	default:
		return nil, fmt.Errorf("no message builder for provider %q", providerName)
	}
}
