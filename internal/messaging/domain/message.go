package domain

// Message is the closed set of outbound message payloads. The variants are
// sealed with an unexported marker method so that destination handling in
// Destination and WithDestination stays exhaustive: adding a variant is a
// compile-visible change to this package.
type Message interface {
	message()
}

// WhatsAppText is a plain text WhatsApp message.
type WhatsAppText struct {
	To   string
	Body string
}

// WhatsAppMedia is a WhatsApp message with one or more media attachments.
// MediaTypes and MediaFilenames are positional companions to MediaURLs and
// may be shorter; adapters fall back to defaults for missing entries.
type WhatsAppMedia struct {
	To             string
	MediaURLs      []string
	MediaTypes     []string
	MediaFilenames []string
	Caption        string
}

// WhatsAppTemplate is a WhatsApp template message sent through the Twilio
// Content API.
type WhatsAppTemplate struct {
	To               string
	ContentSID       string
	ContentVariables map[string]string
}

// MetaWhatsAppTemplate is a WhatsApp template message in Meta Cloud API
// format. It is distinct from WhatsAppTemplate because Meta's template
// payload differs from Twilio's Content API.
type MetaWhatsAppTemplate struct {
	To           string
	TemplateName string
	LanguageCode string
	Components   []map[string]any
}

// SMSMessage is a plain text SMS. To is E.164, e.g. "+5511999999999".
type SMSMessage struct {
	To   string
	Body string
}

// EmailMessage is an HTML email.
type EmailMessage struct {
	To          string
	Subject     string
	HTMLContent string
	FromEmail   string
	FromName    string
}

// TelegramText is a plain text Telegram message. ParseMode may be "HTML",
// "Markdown" or "MarkdownV2".
type TelegramText struct {
	ChatID    string
	Body      string
	ParseMode string
}

// TelegramMedia is a Telegram message with a media attachment. MediaType
// is "photo", "document" or "video".
type TelegramMedia struct {
	ChatID    string
	MediaURL  string
	MediaType string
	Caption   string
	ParseMode string
}

func (WhatsAppText) message()         {}
func (WhatsAppMedia) message()        {}
func (WhatsAppTemplate) message()     {}
func (MetaWhatsAppTemplate) message() {}
func (SMSMessage) message()           {}
func (EmailMessage) message()         {}
func (TelegramText) message()         {}
func (TelegramMedia) message()        {}

// Destination returns the phone destination of m. The second return is
// false for variants that are not phone-addressed (Telegram, email).
func Destination(m Message) (string, bool) {
	switch msg := m.(type) {
	case WhatsAppText:
		return msg.To, true
	case WhatsAppMedia:
		return msg.To, true
	case WhatsAppTemplate:
		return msg.To, true
	case MetaWhatsAppTemplate:
		return msg.To, true
	case SMSMessage:
		return msg.To, true
	case EmailMessage:
		return "", false
	case TelegramText:
		return "", false
	case TelegramMedia:
		return "", false
	}
	return "", false
}

// WithDestination returns a copy of m addressed to the given phone number.
// Messages are immutable: the original is never modified. Variants without
// a phone destination are returned unchanged.
func WithDestination(m Message, to string) Message {
	switch msg := m.(type) {
	case WhatsAppText:
		msg.To = to
		return msg
	case WhatsAppMedia:
		msg.To = to
		return msg
	case WhatsAppTemplate:
		msg.To = to
		return msg
	case MetaWhatsAppTemplate:
		msg.To = to
		return msg
	case SMSMessage:
		msg.To = to
		return msg
	case EmailMessage, TelegramText, TelegramMedia:
		return m
	}
	return m
}
