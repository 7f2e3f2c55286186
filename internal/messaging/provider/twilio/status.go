package twilio

import (
	"context"
	"log/slog"
	"strings"

	"github.com/loopmsg/messaging-gateway/internal/messaging/domain"
)

// statusTable translates Twilio's message status vocabulary into the
// canonical DeliveryStatus set. Treated as a swappable policy table: the
// gateway's invalid-number detection depends on failures mapping
// correctly.
var statusTable = map[string]domain.DeliveryStatus{
	"queued":      domain.StatusQueued,
	"sent":        domain.StatusSent,
	"delivered":   domain.StatusDelivered,
	"read":        domain.StatusRead,
	"failed":      domain.StatusFailed,
	"undelivered": domain.StatusUndelivered,
	"accepted":    domain.StatusQueued,
	"sending":     domain.StatusQueued,
	"receiving":   domain.StatusQueued,
	"received":    domain.StatusDelivered,
	"scheduled":   domain.StatusQueued,
	"canceled":    domain.StatusFailed,
}

// mapStatus maps a Twilio status string to the canonical status. An empty
// status with a SID back means the message was taken, so it counts as
// queued; unknown vocabulary maps to failed.
func mapStatus(ctx context.Context, logger *slog.Logger, status string) domain.DeliveryStatus {
	if status == "" {
		return domain.StatusQueued
	}
	if mapped, ok := statusTable[strings.ToLower(status)]; ok {
		return mapped
	}
	logger.WarnContext(ctx, "unknown Twilio message status", "status", status)
	return domain.StatusFailed
}
