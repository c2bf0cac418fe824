package handlers

import (
	"context"
	"healthcare-messaging-server/internal/messaging"
	"healthcare-messaging-server/internal/middleware"
	"healthcare-messaging-server/internal/utils"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// MessageService is the messaging engine as seen by the HTTP layer.
type MessageService interface {
	Send(ctx context.Context, actor, receiver messaging.UserID, content string) (messaging.Message, error)
	ListConversations(ctx context.Context, actor messaging.UserID) ([]messaging.Conversation, error)
	OpenConversation(ctx context.Context, actor, counterpart messaging.UserID) (messaging.Thread, error)
	MessagesSince(ctx context.Context, actor messaging.UserID, since time.Time) ([]messaging.Message, error)
	MarkMessageRead(ctx context.Context, actor messaging.UserID, id messaging.MessageID) (messaging.Message, error)
	UnreadCount(ctx context.Context, actor messaging.UserID) (int64, error)
}

// MessageHandler handles messaging related requests.
type MessageHandler struct {
	Messages MessageService
	Log      *slog.Logger
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messages MessageService, log *slog.Logger) *MessageHandler {
	return &MessageHandler{Messages: messages, Log: log}
}

// SendMessageRequest represents the request body for sending a message.
type SendMessageRequest struct {
	RecipientID string `json:"recipientId" binding:"required" validate:"uuid"`
	Content     string `json:"content" binding:"required"`
}

// ConversationURI identifies the counterpart of a conversation.
type ConversationURI struct {
	UserID string `uri:"userId" binding:"required" validate:"uuid"`
}

// MessageURI identifies a single message.
type MessageURI struct {
	MessageID uint64 `uri:"messageId" binding:"required"`
}

// NewMessagesRequest represents the query params for getting new messages
type NewMessagesRequest struct {
	Since string `form:"since" binding:"required"`
}

// actor returns the signed-in user, or "" when the request carries none.
// The service turns "" into an authentication error.
func actor(c *gin.Context) messaging.UserID {
	userID, _ := middleware.GetUserIDFromContext(c)
	return messaging.UserID(userID)
}

// SendMessage handles sending a new message.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	message, err := h.Messages.Send(c.Request.Context(), actor(c), messaging.UserID(req.RecipientID), req.Content)
	if err != nil {
		utils.MessagingError(c, err, "Failed to send message")
		return
	}

	role, _ := middleware.GetUserRoleFromContext(c)
	h.Log.Debug("message accepted", "id", message.ID, "senderRole", role)
	utils.Created(c, "Message sent successfully", message)
}

// GetConversations handles fetching the inbox: one entry per counterpart.
func (h *MessageHandler) GetConversations(c *gin.Context) {
	conversations, err := h.Messages.ListConversations(c.Request.Context(), actor(c))
	if err != nil {
		utils.MessagingError(c, err, "Failed to fetch conversations")
		return
	}

	utils.Success(c, "Conversations fetched successfully", conversations)
}

// GetConversation handles opening the thread with one user. Messages the
// caller received in it are marked as read.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	var uri ConversationURI
	if !utils.BindURIAndValidate(c, &uri) {
		return
	}

	thread, err := h.Messages.OpenConversation(c.Request.Context(), actor(c), messaging.UserID(uri.UserID))
	if err != nil {
		utils.MessagingError(c, err, "Failed to fetch messages")
		return
	}

	utils.Success(c, "Messages fetched successfully", thread)
}

// GetNewMessages handles fetching new messages since a given timestamp
func (h *MessageHandler) GetNewMessages(c *gin.Context) {
	var req NewMessagesRequest
	if !utils.BindQueryAndValidate(c, &req) {
		return
	}

	// Parse the since timestamp
	sinceTime, err := time.Parse(time.RFC3339, req.Since)
	if err != nil {
		utils.BadRequest(c, "Invalid timestamp format. Use RFC3339 format (e.g., 2006-01-02T15:04:05Z07:00)")
		return
	}

	messages, err := h.Messages.MessagesSince(c.Request.Context(), actor(c), sinceTime)
	if err != nil {
		utils.MessagingError(c, err, "Failed to fetch messages")
		return
	}

	utils.Success(c, "New messages fetched successfully", messages)
}

// MarkMessageAsRead handles marking a specific message as read.
func (h *MessageHandler) MarkMessageAsRead(c *gin.Context) {
	var uri MessageURI
	if !utils.BindURIAndValidate(c, &uri) {
		return
	}

	message, err := h.Messages.MarkMessageRead(c.Request.Context(), actor(c), messaging.MessageID(uri.MessageID))
	if err != nil {
		utils.MessagingError(c, err, "Failed to update message status")
		return
	}

	utils.Success(c, "Message marked as read successfully", message)
}

// GetUnreadCount handles fetching the total number of unread messages.
func (h *MessageHandler) GetUnreadCount(c *gin.Context) {
	count, err := h.Messages.UnreadCount(c.Request.Context(), actor(c))
	if err != nil {
		utils.MessagingError(c, err, "Failed to count unread messages")
		return
	}

	utils.Success(c, "Unread count fetched successfully", gin.H{"unreadCount": count})
}
