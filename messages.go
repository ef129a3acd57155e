package rentall

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oamouyal-jpg/rentall/domain"
)

type messageRequest struct {
	RecipientID string  `json:"recipient_id" binding:"required"`
	Content     string  `json:"content" binding:"required"`
	ListingID   *string `json:"listing_id"`
}

// sendMessage delivers a message to another user, optionally tied to a
// listing the conversation is about.
func (server *Server) sendMessage(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		detail(c, http.StatusNotFound, "Recipient not found")
		return
	}
	if _, err := server.Repo.GetUser(recipientID); err != nil {
		detail(c, http.StatusNotFound, "Recipient not found")
		return
	}
	var listingID *uuid.UUID
	if req.ListingID != nil && *req.ListingID != "" {
		parsed, err := uuid.Parse(*req.ListingID)
		if err != nil {
			detail(c, http.StatusBadRequest, "Invalid listing id")
			return
		}
		listingID = &parsed
	}

	id, err := uuid.NewV7()
	if err != nil {
		server.internalError(c, fmt.Errorf("generating message id : %w", err))
		return
	}
	message := &domain.Message{
		ID:          id,
		SenderID:    user.ID,
		RecipientID: recipientID,
		ListingID:   listingID,
		Content:     req.Content,
		CreatedAt:   time.Now().UTC(),
	}
	if err := server.Repo.CreateMessage(message); err != nil {
		server.internalError(c, err)
		return
	}
	message.SenderName = user.Name
	message.SenderAvatar = user.AvatarURL
	c.JSON(http.StatusOK, message)
}

// getConversations summarizes the current user's message threads, one entry
// per partner with the newest message and the unread count.
func (server *Server) getConversations(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	conversations, err := server.Repo.GetConversations(user.ID)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(conversations))
}

// getThread returns the full exchange with one partner, oldest first, and
// marks the incoming half read. The response still shows the read state from
// before the visit.
func (server *Server) getThread(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	partnerID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusOK, []*domain.Message{})
		return
	}
	messages, err := server.Repo.GetThread(user.ID, partnerID, 100)
	if err != nil {
		server.internalError(c, err)
		return
	}
	if _, err := server.Repo.MarkThreadRead(user.ID, partnerID); err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(messages))
}
