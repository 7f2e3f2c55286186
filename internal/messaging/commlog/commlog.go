// Package commlog records message delivery outcomes and applies status
// updates using the DeliveryStatus precedence contract: an update is only
// written when it represents forward progress over what is on record.
package commlog

import (
	"context"
	"errors"
	"time"

	"github.com/loopmsg/messaging-gateway/internal/messaging/domain"
)

// ErrNotFound is returned when a log entry does not exist.
var ErrNotFound = errors.New("communication log entry not found")

// Entry is one outbound message's delivery record.
type Entry struct {
	ID                 string
	Channel            string // e.g. "whatsapp", "sms", "email", "telegram"
	Recipient          string
	Status             domain.DeliveryStatus
	ExternalID         *string
	ErrorCode          *string
	ErrorMessage       *string
	UsedFallbackNumber *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Repository persists communication log entries.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id string) (*Entry, error)
	// GetByExternalID looks an entry up by the provider-assigned ID.
	GetByExternalID(ctx context.Context, externalID string) (*Entry, error)
	// ApplyStatus records an incoming delivery result against the entry,
	// honoring ShouldApply; stale updates are silently dropped.
	ApplyStatus(ctx context.Context, id string, result domain.DeliveryResult) error
}

// ShouldApply reports whether an incoming status supersedes the current
// one. Forward progress means strictly higher positive precedence; a
// terminal failure (negative precedence) supersedes any non-failure
// state. Failure states never rank against each other: the failure
// already on record wins.
func ShouldApply(current, incoming domain.DeliveryStatus) bool {
	cp, ip := current.Precedence(), incoming.Precedence()
	if ip > 0 && ip > cp {
		return true
	}
	if ip < 0 && cp >= 0 {
		return true
	}
	return false
}
