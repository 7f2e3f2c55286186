package domain

// DeliveryStatus represents the normalized status of a message delivery
// attempt. Every provider adapter maps its own status vocabulary into
// this closed set.
type DeliveryStatus string

const (
	// StatusQueued means the message is accepted and queued by the provider.
	StatusQueued DeliveryStatus = "queued"
	// StatusSent means the message has been dispatched by the provider.
	StatusSent DeliveryStatus = "sent"
	// StatusDelivered means the message reached the recipient's device.
	StatusDelivered DeliveryStatus = "delivered"
	// StatusRead means the recipient read the message.
	StatusRead DeliveryStatus = "read"
	// StatusFailed means the delivery attempt failed.
	StatusFailed DeliveryStatus = "failed"
	// StatusUndelivered means the provider accepted the message but could
	// not deliver it.
	StatusUndelivered DeliveryStatus = "undelivered"
)

// Precedence returns the ordering value used to compare delivery progress.
// Positive values strictly increase with progress (queued < sent <
// delivered < read); negative values are terminal failures and never rank
// "further along" than a positive state.
//
// This ordering is a permanent external contract: communication logs
// compare precedences to decide whether an incoming status update is
// newer than the one on record.
func (s DeliveryStatus) Precedence() int {
	switch s {
	case StatusQueued:
		return 1
	case StatusSent:
		return 4
	case StatusDelivered:
		return 5
	case StatusRead:
		return 6
	case StatusUndelivered:
		return -2
	case StatusFailed:
		return -1
	default:
		// Unknown values rank as failed so they can never masquerade as
		// forward progress.
		return -1
	}
}

// String returns the wire representation of the status.
func (s DeliveryStatus) String() string {
	return string(s)
}
