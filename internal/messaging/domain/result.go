package domain

// DeliveryResult is the outcome of a single delivery attempt from a
// provider. It is an immutable value: adapters build one per attempt and
// callers never mutate it.
type DeliveryResult struct {
	Status       DeliveryStatus
	ExternalID   string
	ErrorCode    string
	ErrorMessage string
}

// Succeeded reports whether the attempt reached a non-failure state.
func (r DeliveryResult) Succeeded() bool {
	return r.Status != StatusFailed && r.Status != StatusUndelivered
}

// Ok builds a successful result. An empty status defaults to StatusSent.
func Ok(status DeliveryStatus, externalID string) DeliveryResult {
	if status == "" {
		status = StatusSent
	}
	return DeliveryResult{Status: status, ExternalID: externalID}
}

// Fail builds a failed result carrying a human-readable error message and
// an optional provider error code.
func Fail(errorMessage, errorCode string) DeliveryResult {
	return DeliveryResult{
		Status:       StatusFailed,
		ErrorCode:    errorCode,
		ErrorMessage: errorMessage,
	}
}

// GatewayResult wraps a DeliveryResult with gateway-level metadata.
// UsedFallbackNumber is non-empty if and only if the gateway performed a
// second, non-failed send attempt with a denormalized phone number.
type GatewayResult struct {
	Delivery           DeliveryResult
	UsedFallbackNumber string
}

// Succeeded reports whether the wrapped delivery succeeded.
func (g GatewayResult) Succeeded() bool { return g.Delivery.Succeeded() }

// Status returns the wrapped delivery status.
func (g GatewayResult) Status() DeliveryStatus { return g.Delivery.Status }

// ExternalID returns the provider-assigned message ID, if any.
func (g GatewayResult) ExternalID() string { return g.Delivery.ExternalID }

// ErrorCode returns the provider error code, if any.
func (g GatewayResult) ErrorCode() string { return g.Delivery.ErrorCode }

// ErrorMessage returns the human-readable error, if any.
func (g GatewayResult) ErrorMessage() string { return g.Delivery.ErrorMessage }
