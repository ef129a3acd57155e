package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageRepository is the interface that holds all the messaging related repository methods in RentAll
type MessageRepository interface {
	// CreateMessage will insert the Message in the DB
	CreateMessage(message *Message) error

	// GetThread returns the messages exchanged between the two users in
	// chronological order.
	GetThread(userID uuid.UUID, partnerID uuid.UUID, limit int) ([]*Message, error)

	// MarkThreadRead marks every unread message from the partner to the user
	// as read and returns how many were updated.
	MarkThreadRead(userID uuid.UUID, partnerID uuid.UUID) (int64, error)

	// GetConversations returns one summary per conversation partner of the
	// user, most recently active first, with unread counts.
	GetConversations(userID uuid.UUID) ([]*Conversation, error)
}

// Message is a direct message between two users, optionally tied to a listing.
type Message struct {
	ID           uuid.UUID  `json:"id"`            // Unique identifier for the message
	SenderID     uuid.UUID  `json:"sender_id"`     // Sending user
	SenderName   string     `json:"sender_name"`   // Sender display name, joined on read
	SenderAvatar *string    `json:"sender_avatar"` // Sender avatar URL, joined on read
	RecipientID  uuid.UUID  `json:"recipient_id"`  // Receiving user
	ListingID    *uuid.UUID `json:"listing_id"`    // Listing the conversation is about, if any
	Content      string     `json:"content"`       // Message text
	IsRead       bool       `json:"is_read"`       // Whether the recipient opened the thread since
	CreatedAt    time.Time  `json:"created_at"`    // Timestamp when the message was sent
}

// Conversation summarizes a message thread with one partner. It is derived
// from the messages table, not stored.
type Conversation struct {
	UserID          uuid.UUID  `json:"user_id"`           // Conversation partner
	UserName        string     `json:"user_name"`         // Partner display name
	UserAvatar      *string    `json:"user_avatar"`       // Partner avatar URL
	LastMessage     string     `json:"last_message"`      // Content of the newest message
	LastMessageTime time.Time  `json:"last_message_time"` // Timestamp of the newest message
	UnreadCount     int        `json:"unread_count"`      // Unread messages from the partner
	ListingID       *uuid.UUID `json:"listing_id"`        // Listing tied to the newest message, if any
	ListingTitle    *string    `json:"listing_title"`     // Title of that listing
}
