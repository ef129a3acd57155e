package payments

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// DefaultTolerance bounds how far a webhook timestamp may drift from the
// receiver's clock.
const DefaultTolerance = 5 * time.Minute

var (
	// ErrSessionNotFound is returned when no session exists for the given ID.
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrSessionClosed is returned when a finalized session is finalized again
	// the other way.
	ErrSessionClosed = errors.New("checkout session already finalized")
	// ErrBadSignature is returned for webhook deliveries that fail
	// authentication, including stale timestamps.
	ErrBadSignature = errors.New("invalid webhook signature")
)

var _ Provider = (*Sandbox)(nil)

// Sandbox is an in-memory checkout provider. Sessions open pending and are
// completed or expired through the test hooks standing in for the hosted
// payment page. Webhook payloads are authenticated with an HMAC signature
// over a timestamped envelope.
type Sandbox struct {
	host      string
	secret    []byte
	tolerance time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSandbox creates a sandbox provider. host is where the hosted checkout
// pages would live, secret signs webhook payloads.
func NewSandbox(host string, secret string) *Sandbox {
	return &Sandbox{
		host:      strings.TrimRight(host, "/"),
		secret:    []byte(secret),
		tolerance: DefaultTolerance,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// CreateSession opens a new pending session and returns it.
func (s *Sandbox) CreateSession(_ context.Context, req SessionRequest) (*Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	metadata := make(map[string]string, len(req.Metadata))
	for key, value := range req.Metadata {
		metadata[key] = value
	}

	session := &Session{
		ID:            id,
		URL:           fmt.Sprintf("%s/pay/%s", s.host, id),
		Amount:        req.Amount,
		Currency:      req.Currency,
		Status:        SessionOpen,
		PaymentStatus: PaymentPending,
		Metadata:      metadata,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session

	return cloneSession(session), nil
}

// SessionStatus returns a snapshot of the session.
func (s *Sandbox) SessionStatus(_ context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return cloneSession(session), nil
}

// Complete marks the session paid the way a shopper finishing the hosted
// page would, and returns the event a gateway would deliver for it. Calling
// it again on a completed session returns the same event.
func (s *Sandbox) Complete(sessionID string) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.Status == SessionExpired {
		return nil, ErrSessionClosed
	}

	session.Status = SessionComplete
	session.PaymentStatus = PaymentPaid
	return &Event{SessionID: sessionID, PaymentStatus: PaymentPaid}, nil
}

// Expire abandons a session that was never paid.
func (s *Sandbox) Expire(sessionID string) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.Status == SessionComplete {
		return nil, ErrSessionClosed
	}

	session.Status = SessionExpired
	session.PaymentStatus = PaymentExpired
	return &Event{SessionID: sessionID, PaymentStatus: PaymentExpired}, nil
}

// SignPayload computes the signature header for a webhook payload issued at
// the given time, formatted as t=<unix>,v1=<hex>.
func (s *Sandbox) SignPayload(payload []byte, at time.Time) string {
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(s.mac(at.Unix(), payload)))
}

// VerifyWebhook authenticates a delivery against the signing secret and the
// timestamp tolerance, then decodes the event.
func (s *Sandbox) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	timestamp, provided, err := parseSignature(signature)
	if err != nil {
		return nil, err
	}

	age := s.now().Sub(time.Unix(timestamp, 0))
	if age > s.tolerance || age < -s.tolerance {
		return nil, ErrBadSignature
	}

	got, err := hex.DecodeString(provided)
	if err != nil || !hmac.Equal(s.mac(timestamp, payload), got) {
		return nil, ErrBadSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decoding webhook payload : %w", err)
	}
	if event.SessionID == "" {
		return nil, fmt.Errorf("webhook payload missing session id")
	}
	return &event, nil
}

// mac computes the HMAC over the timestamped envelope t=<unix>.<payload>.
func (s *Sandbox) mac(timestamp int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "t=%d.", timestamp)
	mac.Write(payload)
	return mac.Sum(nil)
}

func parseSignature(signature string) (int64, string, error) {
	var timestamp int64
	var digest string

	for _, part := range strings.Split(signature, ",") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			return 0, "", ErrBadSignature
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, "", ErrBadSignature
			}
			timestamp = parsed
		case "v1":
			digest = value
		}
	}

	if timestamp == 0 || digest == "" {
		return 0, "", ErrBadSignature
	}
	return timestamp, digest, nil
}

func newSessionID() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session id : %w", err)
	}
	return "cs_" + hex.EncodeToString(buf), nil
}

func cloneSession(session *Session) *Session {
	out := *session
	out.Metadata = make(map[string]string, len(session.Metadata))
	for key, value := range session.Metadata {
		out.Metadata[key] = value
	}
	return &out
}
