// Package gateway sends messages through a provider with optional
// Brazilian phone-number fallback: when a provider rejects a destination
// as invalid, the send is retried once with the alternate 8/9-digit
// encoding of the number.
package gateway

import (
	"context"
	"log/slog"
	"strings"

	"github.com/loopmsg/messaging-gateway/internal/messaging/domain"
	"github.com/loopmsg/messaging-gateway/internal/messaging/phone"
	"github.com/loopmsg/messaging-gateway/internal/messaging/provider"
)

// invalidNumberIndicators are the provider error phrases observed to mean
// "the destination number is invalid or unregistered". The matching is a
// known fragility: the list was reverse-engineered from vendor error text
// and is matched case-insensitively as substrings.
var invalidNumberIndicators = []string{
	"invalid number",
	"not a valid whatsapp",
	"number is not registered",
	"unregistered",
	"invalid 'to' phone number",
	"is not a whatsapp user",
}

// Classifier decides whether a failed delivery result reports an invalid
// destination number, making it eligible for the phone fallback retry.
type Classifier func(domain.DeliveryResult) bool

// IsInvalidNumberError is the default Classifier. Only FAILED results
// match; the error message is checked against the fixed phrase list.
func IsInvalidNumberError(result domain.DeliveryResult) bool {
	if result.Status != domain.StatusFailed {
		return false
	}
	msg := strings.ToLower(result.ErrorMessage)
	for _, indicator := range invalidNumberIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}

// SendOptions controls a single gateway send.
type SendOptions struct {
	// PhoneFallback enables one retry with the denormalized phone number
	// when the first attempt fails with an invalid-number error.
	PhoneFallback bool
}

// Gateway wraps one provider with the fallback retry. It holds no mutable
// cross-call state; a single instance is safe for concurrent use as long
// as the provider itself is.
type Gateway struct {
	provider        provider.Provider
	logger          *slog.Logger
	country         string
	isInvalidNumber Classifier
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithCountry sets the country whose denormalization rule computes the
// fallback number. Default is "BR".
func WithCountry(country string) Option {
	return func(g *Gateway) { g.country = country }
}

// WithInvalidNumberClassifier replaces the default invalid-number
// detection, e.g. to cover a new vendor's error vocabulary without
// touching the retry logic.
func WithInvalidNumberClassifier(c Classifier) Option {
	return func(g *Gateway) { g.isInvalidNumber = c }
}

// New creates a Gateway around the given provider.
func New(p provider.Provider, logger *slog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		provider:        p,
		logger:          logger.With("component", "gateway", "provider", p.Name()),
		country:         "BR",
		isInvalidNumber: IsInvalidNumberError,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Send performs one logical send: at most two provider calls, and every
// path terminates in a GatewayResult (the gateway never panics on its own
// account).
//
// When the first attempt fails with an invalid-number error and
// PhoneFallback is enabled, the destination is denormalized and the send
// retried once. A non-FAILED second attempt is surfaced with
// UsedFallbackNumber set; if both attempts fail, the first attempt's
// failure is surfaced so its diagnostics stay primary.
func (g *Gateway) Send(ctx context.Context, msg domain.Message, opts SendOptions) domain.GatewayResult {
	result := g.provider.Send(ctx, msg)

	if opts.PhoneFallback && g.isInvalidNumber(result) {
		if fallback := g.sendWithFallbackNumber(ctx, msg); fallback != nil {
			return *fallback
		}
	}

	return domain.GatewayResult{Delivery: result}
}

// sendWithFallbackNumber retries with the alternate phone encoding. It
// returns nil when no alternate encoding exists or the retry also failed,
// in which case the caller surfaces the original result.
func (g *Gateway) sendWithFallbackNumber(ctx context.Context, msg domain.Message) *domain.GatewayResult {
	to, ok := domain.Destination(msg)
	if !ok {
		return nil
	}

	fallbackTo := phone.Denormalize(to, g.country)
	if fallbackTo == "" || fallbackTo == to {
		return nil
	}

	g.logger.InfoContext(ctx, "retrying with fallback phone format",
		"to", to, "fallback_to", fallbackTo)

	fallbackResult := g.provider.Send(ctx, domain.WithDestination(msg, fallbackTo))

	// Status-based check, not Succeeded(): an UNDELIVERED second attempt
	// still supersedes the original FAILED result.
	if fallbackResult.Status != domain.StatusFailed {
		return &domain.GatewayResult{
			Delivery:           fallbackResult,
			UsedFallbackNumber: fallbackTo,
		}
	}

	g.logger.WarnContext(ctx, "fallback attempt also failed; surfacing original error",
		"to", to, "fallback_to", fallbackTo,
		"fallback_error", fallbackResult.ErrorMessage)
	return nil
}

// FetchStatus delegates status polling to the provider.
func (g *Gateway) FetchStatus(ctx context.Context, externalID string) *domain.DeliveryResult {
	return g.provider.FetchStatus(ctx, externalID)
}
