package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oamouyal-jpg/rentall/domain"
)

var _ domain.PaymentRepository = (*Repository)(nil)

var ErrTransactionNotFound = errors.New("payment transaction not found")

// dbTransaction represents a payment transaction as stored in the database.
type dbTransaction struct {
	ID            uuid.UUID `db:"id"`
	SessionID     string    `db:"session_id"`
	BookingID     uuid.UUID `db:"booking_id"`
	UserID        uuid.UUID `db:"user_id"`
	Amount        float64   `db:"amount"`
	Currency      string    `db:"currency"`
	PlatformFee   float64   `db:"platform_fee"`
	OwnerAmount   float64   `db:"owner_amount"`
	Status        string    `db:"status"`
	PaymentStatus string    `db:"payment_status"`
	Metadata      Metadata  `db:"metadata"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// fromDomainTransaction converts a domain.PaymentTransaction into its
// database representation.
func fromDomainTransaction(transaction *domain.PaymentTransaction) *dbTransaction {
	metadata := transaction.Metadata
	if metadata == nil {
		metadata = Metadata{}
	}
	return &dbTransaction{
		ID:            transaction.ID,
		SessionID:     transaction.SessionID,
		BookingID:     transaction.BookingID,
		UserID:        transaction.UserID,
		Amount:        transaction.Amount,
		Currency:      transaction.Currency,
		PlatformFee:   transaction.PlatformFee,
		OwnerAmount:   transaction.OwnerAmount,
		Status:        transaction.Status,
		PaymentStatus: transaction.PaymentStatus,
		Metadata:      Metadata(metadata),
		CreatedAt:     transaction.CreatedAt,
		UpdatedAt:     transaction.UpdatedAt,
	}
}

// toDomainTransaction converts a dbTransaction into a domain.PaymentTransaction.
func toDomainTransaction(dbTransaction *dbTransaction) *domain.PaymentTransaction {
	return &domain.PaymentTransaction{
		ID:            dbTransaction.ID,
		SessionID:     dbTransaction.SessionID,
		BookingID:     dbTransaction.BookingID,
		UserID:        dbTransaction.UserID,
		Amount:        dbTransaction.Amount,
		Currency:      dbTransaction.Currency,
		PlatformFee:   dbTransaction.PlatformFee,
		OwnerAmount:   dbTransaction.OwnerAmount,
		Status:        dbTransaction.Status,
		PaymentStatus: dbTransaction.PaymentStatus,
		Metadata:      map[string]any(dbTransaction.Metadata),
		CreatedAt:     dbTransaction.CreatedAt,
		UpdatedAt:     dbTransaction.UpdatedAt,
	}
}

// CreateTransaction inserts a new domain.PaymentTransaction into the database.
func (repo *Repository) CreateTransaction(transaction *domain.PaymentTransaction) error {
	query := `INSERT INTO payment_transactions(id, session_id, booking_id, user_id, amount, currency,
				platform_fee, owner_amount, status, payment_status, metadata, created_at, updated_at)
			  VALUES(:id, :session_id, :booking_id, :user_id, :amount, :currency,
				:platform_fee, :owner_amount, :status, :payment_status, :metadata, :created_at, :updated_at)`

	_, err := repo.dbConn.NamedExec(query, fromDomainTransaction(transaction))
	if err != nil {
		return fmt.Errorf("inserting payment transaction %s : %w", transaction.SessionID, err)
	}
	return nil
}

// GetTransactionBySession retrieves the payment transaction for a checkout
// session. Returns ErrTransactionNotFound when no transaction matches.
func (repo *Repository) GetTransactionBySession(sessionID string) (*domain.PaymentTransaction, error) {
	var dbTransaction dbTransaction
	query := `SELECT id, session_id, booking_id, user_id, amount, currency, platform_fee, owner_amount,
				status, payment_status, metadata, created_at, updated_at
			  FROM payment_transactions WHERE session_id = ?`

	err := repo.dbConn.Get(&dbTransaction, query, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("getting payment transaction %s : %w", sessionID, err)
	}

	return toDomainTransaction(&dbTransaction), nil
}

// MarkTransactionPaid flips the transaction to completed/paid. The update is
// idempotent, the returned bool reports whether this call performed the flip
// so callers can avoid paying out a booking twice.
func (repo *Repository) MarkTransactionPaid(sessionID string) (bool, error) {
	query := `UPDATE payment_transactions
			  SET status = ?, payment_status = ?, updated_at = ?
			  WHERE session_id = ? AND payment_status != ?`

	result, err := repo.dbConn.Exec(query, domain.TransactionCompleted, domain.PaymentPaid,
		time.Now().UTC(), sessionID, domain.PaymentPaid)
	if err != nil {
		return false, fmt.Errorf("marking transaction %s paid : %w", sessionID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking transaction update rows affected : %w", err)
	}

	return rowsAffected > 0, nil
}

// MarkTransactionExpired flips a still pending transaction to expired. A
// transaction that already completed is left untouched.
func (repo *Repository) MarkTransactionExpired(sessionID string) error {
	query := `UPDATE payment_transactions
			  SET status = ?, payment_status = ?, updated_at = ?
			  WHERE session_id = ? AND payment_status = ?`

	_, err := repo.dbConn.Exec(query, domain.TransactionExpired, domain.PaymentExpired,
		time.Now().UTC(), sessionID, domain.PaymentPending)
	if err != nil {
		return fmt.Errorf("marking transaction %s expired : %w", sessionID, err)
	}
	return nil
}
