// Package provider defines the capability contract every messaging
// backend satisfies, plus a recording mock for tests.
package provider

import (
	"context"

	"github.com/loopmsg/messaging-gateway/internal/messaging/domain"
)

// Provider is the seam between the gateway and a concrete messaging
// backend (Twilio, Meta, Telegram, SendGrid, ...).
type Provider interface {
	// Send delivers the message and reports the outcome. Implementations
	// never panic: every failure mode (validation, transport, remote API
	// error) is folded into a failed DeliveryResult carrying as much
	// error code/message detail as the backend exposes.
	Send(ctx context.Context, msg domain.Message) domain.DeliveryResult

	// FetchStatus polls the backend for the current delivery status of a
	// previously sent message. It returns nil when the backend cannot
	// poll (webhook-only APIs) or the external ID is unknown; "not found"
	// is a nil return, not an error.
	FetchStatus(ctx context.Context, externalID string) *domain.DeliveryResult

	// Name identifies the provider, e.g. for log fields and map keys.
	Name() string
}
