package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/oamouyal-jpg/rentall/domain"
)

var _ domain.MessageRepository = (*Repository)(nil)

// dbMessage represents a message as stored in the database. The sender
// display fields are only populated by the thread query, which joins users.
type dbMessage struct {
	ID           uuid.UUID      `db:"id"`
	SenderID     uuid.UUID      `db:"sender_id"`
	SenderName   string         `db:"sender_name"`
	SenderAvatar sql.NullString `db:"sender_avatar"`
	RecipientID  uuid.UUID      `db:"recipient_id"`
	ListingID    uuid.NullUUID  `db:"listing_id"`
	Content      string         `db:"content"`
	IsRead       bool           `db:"is_read"`
	CreatedAt    time.Time      `db:"created_at"`
}

// nullUUID converts an optional domain UUID to its sql form.
func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// uuidPtr converts a uuid.NullUUID back to an optional domain UUID.
func uuidPtr(nu uuid.NullUUID) *uuid.UUID {
	if !nu.Valid {
		return nil
	}
	id := nu.UUID
	return &id
}

// toDomainMessage converts a dbMessage into a domain.Message.
func toDomainMessage(dbMessage *dbMessage) *domain.Message {
	return &domain.Message{
		ID:           dbMessage.ID,
		SenderID:     dbMessage.SenderID,
		SenderName:   dbMessage.SenderName,
		SenderAvatar: stringPtr(dbMessage.SenderAvatar),
		RecipientID:  dbMessage.RecipientID,
		ListingID:    uuidPtr(dbMessage.ListingID),
		Content:      dbMessage.Content,
		IsRead:       dbMessage.IsRead,
		CreatedAt:    dbMessage.CreatedAt,
	}
}

// CreateMessage inserts a new domain.Message into the database.
func (repo *Repository) CreateMessage(message *domain.Message) error {
	query := `INSERT INTO messages(id, sender_id, recipient_id, listing_id, content, is_read, created_at)
			  VALUES(?, ?, ?, ?, ?, ?, ?)`
	_, err := repo.dbConn.Exec(query, message.ID, message.SenderID, message.RecipientID,
		nullUUID(message.ListingID), message.Content, message.IsRead, message.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting message %s : %w", message.ID, err)
	}
	return nil
}

// GetThread retrieves the messages exchanged between the two users in
// chronological order, with the sender display fields joined in.
func (repo *Repository) GetThread(userID uuid.UUID, partnerID uuid.UUID, limit int) ([]*domain.Message, error) {
	if limit <= 0 {
		limit = 100
	}

	var dbMessages []*dbMessage
	query := `SELECT m.id, m.sender_id, m.recipient_id, m.listing_id, m.content, m.is_read, m.created_at,
				u.name AS sender_name, u.avatar_url AS sender_avatar
			  FROM messages m
			  JOIN users u ON u.id = m.sender_id
			  WHERE (m.sender_id = ? AND m.recipient_id = ?)
			     OR (m.sender_id = ? AND m.recipient_id = ?)
			  ORDER BY m.created_at ASC
			  LIMIT ?`

	err := repo.dbConn.Select(&dbMessages, query, userID, partnerID, partnerID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("retrieving thread between %s and %s : %w", userID, partnerID, err)
	}

	messages := make([]*domain.Message, len(dbMessages))
	for i, dbMessage := range dbMessages {
		messages[i] = toDomainMessage(dbMessage)
	}
	return messages, nil
}

// MarkThreadRead marks every unread message from the partner to the user as
// read and returns how many rows were updated.
func (repo *Repository) MarkThreadRead(userID uuid.UUID, partnerID uuid.UUID) (int64, error) {
	query := `UPDATE messages SET is_read = 1
			  WHERE sender_id = ? AND recipient_id = ? AND is_read = 0`

	result, err := repo.dbConn.Exec(query, partnerID, userID)
	if err != nil {
		return 0, fmt.Errorf("marking thread read between %s and %s : %w", userID, partnerID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking mark read rows affected : %w", err)
	}

	return rowsAffected, nil
}

// GetConversations returns one summary per conversation partner of the user,
// most recently active first. The newest message of each pair supplies the
// preview, and partner and listing details are resolved in two batched
// lookups afterwards.
func (repo *Repository) GetConversations(userID uuid.UUID) ([]*domain.Conversation, error) {
	var dbMessages []*dbMessage
	query := `SELECT id, sender_id, recipient_id, listing_id, content, is_read, created_at
			  FROM messages
			  WHERE sender_id = ? OR recipient_id = ?
			  ORDER BY created_at DESC
			  LIMIT 1000`

	err := repo.dbConn.Select(&dbMessages, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("retrieving message feed for %s : %w", userID, err)
	}

	conversations := make([]*domain.Conversation, 0)
	index := make(map[uuid.UUID]*domain.Conversation)
	for _, dbMessage := range dbMessages {
		partnerID := dbMessage.RecipientID
		if dbMessage.RecipientID == userID {
			partnerID = dbMessage.SenderID
		}

		conversation, ok := index[partnerID]
		if !ok {
			conversation = &domain.Conversation{
				UserID:          partnerID,
				UserName:        "Unknown",
				LastMessage:     dbMessage.Content,
				LastMessageTime: dbMessage.CreatedAt,
				ListingID:       uuidPtr(dbMessage.ListingID),
			}
			index[partnerID] = conversation
			conversations = append(conversations, conversation)
		}

		if dbMessage.RecipientID == userID && !dbMessage.IsRead {
			conversation.UnreadCount++
		}
	}

	if len(conversations) == 0 {
		return conversations, nil
	}

	partnerIDs := make([]uuid.UUID, 0, len(conversations))
	listingIDs := make([]uuid.UUID, 0, len(conversations))
	for _, conversation := range conversations {
		partnerIDs = append(partnerIDs, conversation.UserID)
		if conversation.ListingID != nil {
			listingIDs = append(listingIDs, *conversation.ListingID)
		}
	}

	partners, err := repo.GetUsersByID(partnerIDs...)
	if err != nil {
		return nil, fmt.Errorf("resolving conversation partners for %s : %w", userID, err)
	}

	titles, err := repo.getListingTitles(listingIDs)
	if err != nil {
		return nil, fmt.Errorf("resolving conversation listings for %s : %w", userID, err)
	}

	for _, conversation := range conversations {
		if partner, ok := partners[conversation.UserID]; ok {
			conversation.UserName = partner.Name
			conversation.UserAvatar = partner.AvatarURL
		}
		if conversation.ListingID != nil {
			if title, ok := titles[*conversation.ListingID]; ok {
				conversation.ListingTitle = &title
			}
		}
	}

	return conversations, nil
}

// getListingTitles retrieves listing titles in a single query, keyed by ID.
func (repo *Repository) getListingTitles(ids []uuid.UUID) (map[uuid.UUID]string, error) {
	titles := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}

	query, args, err := sqlx.In(`SELECT id, title FROM listings WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("building listing title query : %w", err)
	}

	var rows []struct {
		ID    uuid.UUID `db:"id"`
		Title string    `db:"title"`
	}
	err = repo.dbConn.Select(&rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("getting listing titles : %w", err)
	}

	for _, row := range rows {
		titles[row.ID] = row.Title
	}
	return titles, nil
}
