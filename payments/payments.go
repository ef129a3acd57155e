// Package payments defines the checkout provider seam for the marketplace
// and ships an in-memory sandbox provider with the same observable flow as a
// hosted gateway. Real gateways plug in behind the same interface.
package payments

import "context"

// Session statuses.
const (
	SessionOpen     = "open"
	SessionComplete = "complete"
	SessionExpired  = "expired"
)

// Payment statuses within a session.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentExpired = "expired"
)

// SessionRequest describes the checkout session to open. Metadata is echoed
// back on the session so callers can correlate it with their own records.
type SessionRequest struct {
	Amount     float64
	Currency   string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// Session is the provider's view of a checkout.
type Session struct {
	ID            string
	URL           string
	Amount        float64
	Currency      string
	Status        string
	PaymentStatus string
	Metadata      map[string]string
}

// Event is a provider notification about a session, delivered over a signed
// webhook.
type Event struct {
	SessionID     string `json:"session_id"`
	PaymentStatus string `json:"payment_status"`
}

// Provider opens checkout sessions and reports on their progress.
type Provider interface {
	// CreateSession opens a checkout session the shopper can be sent to.
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	// SessionStatus returns the current state of a session.
	SessionStatus(ctx context.Context, sessionID string) (*Session, error)
	// VerifyWebhook authenticates a webhook delivery and decodes its event.
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}
