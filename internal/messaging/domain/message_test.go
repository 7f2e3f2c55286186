package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDestination_PhoneVariants(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"whatsapp text", WhatsAppText{To: "+5511999999999"}, "+5511999999999"},
		{"whatsapp media", WhatsAppMedia{To: "+5511888888888"}, "+5511888888888"},
		{"whatsapp template", WhatsAppTemplate{To: "whatsapp:+5511777777777"}, "whatsapp:+5511777777777"},
		{"meta template", MetaWhatsAppTemplate{To: "+5511666666666"}, "+5511666666666"},
		{"sms", SMSMessage{To: "+5511555555555"}, "+5511555555555"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			to, ok := Destination(tt.msg)
			assert.True(t, ok)
			assert.Equal(t, tt.want, to)
		})
	}
}

func TestDestination_NonPhoneVariants(t *testing.T) {
	for _, msg := range []Message{
		EmailMessage{To: "user@example.com"},
		TelegramText{ChatID: "12345"},
		TelegramMedia{ChatID: "12345"},
	} {
		to, ok := Destination(msg)
		assert.False(t, ok)
		assert.Empty(t, to)
	}
}

func TestWithDestination_CopiesPhoneVariants(t *testing.T) {
	original := WhatsAppText{To: "+5551998644323", Body: "hello"}
	replaced := WithDestination(original, "+555198644323")

	text, ok := replaced.(WhatsAppText)
	assert.True(t, ok)
	assert.Equal(t, "+555198644323", text.To)
	assert.Equal(t, "hello", text.Body)
	// Original stays untouched.
	assert.Equal(t, "+5551998644323", original.To)
}

func TestWithDestination_PreservesPayloadFields(t *testing.T) {
	media := WhatsAppMedia{
		To:        "+5551998644323",
		MediaURLs: []string{"https://example.com/a.jpg"},
		Caption:   "caption",
	}
	replaced := WithDestination(media, "+555198644323").(WhatsAppMedia)
	assert.Equal(t, "+555198644323", replaced.To)
	assert.Equal(t, media.MediaURLs, replaced.MediaURLs)
	assert.Equal(t, "caption", replaced.Caption)

	sms := WithDestination(SMSMessage{To: "+111", Body: "b"}, "+222").(SMSMessage)
	assert.Equal(t, "+222", sms.To)
	assert.Equal(t, "b", sms.Body)
}

func TestWithDestination_NonPhoneVariantsUnchanged(t *testing.T) {
	email := EmailMessage{To: "user@example.com", Subject: "s"}
	assert.Equal(t, Message(email), WithDestination(email, "+555198644323"))

	tg := TelegramText{ChatID: "12345", Body: "b"}
	assert.Equal(t, Message(tg), WithDestination(tg, "+555198644323"))
}
