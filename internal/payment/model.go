package payment

import "time"

// Statuses a payment request moves through. A record is only ever written as
// pending and transitions at most once, to approved or denied. Expired is a
// reported view of an overdue pending record and is never stored.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
	StatusExpired  = "expired"
)

// PaymentRequest is a payment awaiting (or having received) out-of-band
// authorization. The primary key is the provider-issued request id; a record
// cannot exist before the provider has accepted the push challenge.
type PaymentRequest struct {
	ID         string
	UserID     string
	ProviderID string
	SendTo     string
	Amount     int64
	Status     string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	DecidedAt  *time.Time
}

// Terminal reports whether the stored status can no longer change.
func (p PaymentRequest) Terminal() bool {
	return p.Status == StatusApproved || p.Status == StatusDenied
}
