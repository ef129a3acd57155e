package rentall

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oamouyal-jpg/rentall/db"
	"github.com/oamouyal-jpg/rentall/domain"
	"github.com/oamouyal-jpg/rentall/payments"
)

type checkoutRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	OriginURL string `json:"origin_url" binding:"required"`
}

// createCheckout opens a checkout session for a booking the current user
// placed. The redirect URLs are built from the caller's origin so the
// frontend gets the shopper back, and the amount is taken from the booking
// record, never from the request.
func (server *Server) createCheckout(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		detail(c, http.StatusNotFound, "Booking not found")
		return
	}
	booking, err := server.Repo.GetBooking(bookingID)
	if err != nil {
		if errors.Is(err, db.ErrBookingNotFound) {
			detail(c, http.StatusNotFound, "Booking not found")
			return
		}
		server.internalError(c, err)
		return
	}
	if booking.RenterID != user.ID {
		detail(c, http.StatusForbidden, "Not authorized")
		return
	}
	if booking.Status == domain.StatusPaid {
		detail(c, http.StatusBadRequest, "Booking already paid")
		return
	}

	session, err := server.Payments.CreateSession(c.Request.Context(), payments.SessionRequest{
		Amount:     booking.TotalPrice,
		Currency:   "usd",
		SuccessURL: fmt.Sprintf("%s/payment/success?session_id={CHECKOUT_SESSION_ID}", req.OriginURL),
		CancelURL:  fmt.Sprintf("%s/payment/cancel", req.OriginURL),
		Metadata: map[string]string{
			"booking_id":   booking.ID.String(),
			"user_id":      user.ID.String(),
			"platform_fee": strconv.FormatFloat(booking.PlatformFee, 'f', -1, 64),
		},
	})
	if err != nil {
		server.internalError(c, fmt.Errorf("creating checkout session : %w", err))
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		server.internalError(c, fmt.Errorf("generating transaction id : %w", err))
		return
	}
	now := time.Now().UTC()
	transaction := &domain.PaymentTransaction{
		ID:            id,
		SessionID:     session.ID,
		BookingID:     booking.ID,
		UserID:        user.ID,
		Amount:        booking.TotalPrice,
		Currency:      "usd",
		PlatformFee:   booking.PlatformFee,
		OwnerAmount:   booking.TotalPrice - booking.PlatformFee,
		Status:        domain.TransactionInitiated,
		PaymentStatus: domain.PaymentPending,
		Metadata: map[string]any{
			"booking_id": booking.ID.String(),
			"listing_id": booking.ListingID.String(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := server.Repo.CreateTransaction(transaction); err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": session.URL, "session_id": session.ID})
}

// getPaymentStatus polls the provider for a session the current user opened
// and folds the outcome back into the transaction and booking records. The
// frontend polls this after the shopper returns from the checkout page.
func (server *Server) getPaymentStatus(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	sessionID := c.Param("session_id")
	transaction, err := server.Repo.GetTransactionBySession(sessionID)
	if err != nil {
		if errors.Is(err, db.ErrTransactionNotFound) {
			detail(c, http.StatusNotFound, "Transaction not found")
			return
		}
		server.internalError(c, err)
		return
	}
	if transaction.UserID != user.ID {
		detail(c, http.StatusForbidden, "Not authorized")
		return
	}

	session, err := server.Payments.SessionStatus(c.Request.Context(), sessionID)
	if err != nil {
		server.internalError(c, fmt.Errorf("checking session %s : %w", sessionID, err))
		return
	}
	if session.PaymentStatus == payments.PaymentPaid && transaction.PaymentStatus != domain.PaymentPaid {
		if err := server.markSessionPaid(sessionID); err != nil {
			server.internalError(c, err)
			return
		}
	} else if session.Status == payments.SessionExpired {
		if err := server.Repo.MarkTransactionExpired(sessionID); err != nil {
			server.internalError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         session.Status,
		"payment_status": session.PaymentStatus,
		"amount":         session.Amount,
		"currency":       session.Currency,
	})
}

// paymentsWebhook ingests signed provider events. The endpoint always
// answers 200 so the provider stops retrying, the body says whether the
// event was accepted.
func (server *Server) paymentsWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error"})
		return
	}
	event, err := server.Payments.VerifyWebhook(payload, c.GetHeader("Payment-Signature"))
	if err != nil {
		server.Logger.Warn("webhook rejected", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "error"})
		return
	}
	if event.PaymentStatus == payments.PaymentPaid {
		if err := server.markSessionPaid(event.SessionID); err != nil {
			server.Logger.Error("webhook processing failed", zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"status": "error"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// markSessionPaid flips the transaction to paid and, if this call was the
// one that flipped it, moves the booking to paid as well. Safe to call from
// both the status poll and the webhook, whichever lands first wins.
func (server *Server) markSessionPaid(sessionID string) error {
	transaction, err := server.Repo.GetTransactionBySession(sessionID)
	if err != nil {
		return fmt.Errorf("loading transaction for session %s : %w", sessionID, err)
	}
	newlyPaid, err := server.Repo.MarkTransactionPaid(sessionID)
	if err != nil {
		return fmt.Errorf("marking transaction paid for session %s : %w", sessionID, err)
	}
	if !newlyPaid {
		return nil
	}
	if err := server.Repo.UpdateBookingStatus(transaction.BookingID, domain.StatusPaid); err != nil {
		return fmt.Errorf("marking booking %s paid : %w", transaction.BookingID, err)
	}
	return nil
}
