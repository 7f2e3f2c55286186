package provider

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/loopmsg/messaging-gateway/internal/messaging/domain"
)

// SentMessage records one message sent through the MockProvider together
// with the result it produced.
type SentMessage struct {
	Message domain.Message
	Result  domain.DeliveryResult
}

// MockProvider is a simulated backend for tests and development. It
// records every send and returns configurable results: a FixedResult when
// set, otherwise a simulated failure with probability FailureRate, and a
// successful SENT result with a generated external ID by default.
type MockProvider struct {
	FailureRate float64
	FixedResult *domain.DeliveryResult

	mu   sync.Mutex
	sent []SentMessage
}

// NewMockProvider creates a MockProvider that always succeeds.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Send(_ context.Context, msg domain.Message) domain.DeliveryResult {
	var result domain.DeliveryResult
	switch {
	case p.FixedResult != nil:
		result = *p.FixedResult
	case p.FailureRate > 0 && rand.Float64() < p.FailureRate:
		result = domain.Fail("Simulated failure", "")
	default:
		id := "mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		result = domain.Ok(domain.StatusSent, id)
	}

	p.mu.Lock()
	p.sent = append(p.sent, SentMessage{Message: msg, Result: result})
	p.mu.Unlock()
	return result
}

// FetchStatus replays the recorded result for a known external ID and
// returns nil for unknown IDs.
func (p *MockProvider) FetchStatus(_ context.Context, externalID string) *domain.DeliveryResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, record := range p.sent {
		if record.Result.ExternalID == externalID {
			result := record.Result
			return &result
		}
	}
	return nil
}

// Sent returns a copy of all recorded messages.
func (p *MockProvider) Sent() []SentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SentMessage, len(p.sent))
	copy(out, p.sent)
	return out
}

// Reset clears all recorded messages.
func (p *MockProvider) Reset() {
	p.mu.Lock()
	p.sent = nil
	p.mu.Unlock()
}
