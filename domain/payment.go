package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transaction lifecycle values. Status tracks the checkout session, while
// PaymentStatus tracks the money. A transaction flips to paid at most once.
const (
	TransactionInitiated = "initiated"
	TransactionCompleted = "completed"
	TransactionExpired   = "expired"

	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentExpired = "expired"
)

// PaymentRepository is the interface that holds all the payment related repository methods in RentAll
type PaymentRepository interface {
	// CreateTransaction will insert the PaymentTransaction in the DB
	CreateTransaction(tx *PaymentTransaction) error

	// GetTransactionBySession will return the transaction recorded for the
	// given checkout session ID
	// It will return db.ErrTransactionNotFound if no transaction exists
	GetTransactionBySession(sessionID string) (*PaymentTransaction, error)

	// MarkTransactionPaid flips the transaction to completed/paid. It reports
	// whether this call performed the flip, so callers can apply follow-up
	// effects exactly once no matter how many webhooks or polls arrive.
	MarkTransactionPaid(sessionID string) (bool, error)

	// MarkTransactionExpired flips the transaction to expired/expired.
	MarkTransactionExpired(sessionID string) error
}

// PaymentTransaction is the ledger row behind one checkout session.
// OwnerAmount is what the listing owner is due after the platform fee.
type PaymentTransaction struct {
	ID            uuid.UUID      `json:"id"`             // Unique identifier for the transaction
	SessionID     string         `json:"session_id"`     // Checkout session ID from the payment provider
	BookingID     uuid.UUID      `json:"booking_id"`     // Booking being paid for
	UserID        uuid.UUID      `json:"user_id"`        // User that started the checkout
	Amount        float64        `json:"amount"`         // Total charged, in currency units
	Currency      string         `json:"currency"`       // ISO currency code, lowercased
	PlatformFee   float64        `json:"platform_fee"`   // Marketplace cut
	OwnerAmount   float64        `json:"owner_amount"`   // Amount minus the platform fee
	Status        string         `json:"status"`         // initiated, completed or expired
	PaymentStatus string         `json:"payment_status"` // pending, paid or expired
	Metadata      map[string]any `json:"metadata"`       // Provider and booking context
	CreatedAt     time.Time      `json:"created_at"`     // Timestamp when checkout started
	UpdatedAt     time.Time      `json:"updated_at"`     // Timestamp of the last status change
}
