package handlers

import (
	"net/http"
	"time"

	"campus-dating-app/internal/middleware"
	"campus-dating-app/internal/models"
	"campus-dating-app/internal/services"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messages *services.MessageService
}

type SendMessageRequest struct {
	Content     string             `json:"content" binding:"required"`
	MessageType models.MessageType `json:"message_type" binding:"omitempty,oneof=text image"`
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

func (h *MessageHandler) GetConversations(c *gin.Context) {
	conversations, err := h.messages.Conversations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to fetch conversations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (h *MessageHandler) GetMessages(c *gin.Context) {
	convID, ok := parseID(c, "conversation_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	var cursor *time.Time
	if raw := c.Query("cursor"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
			return
		}
		cursor = &parsed
	}

	page, err := h.messages.GetMessages(c.Request.Context(), middleware.UserID(c), convID, limit, cursor)
	if err != nil {
		respondError(c, err, "Failed to fetch messages")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	convID, ok := parseID(c, "conversation_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.messages.SendMessage(c.Request.Context(), middleware.UserID(c), convID, req.Content, req.MessageType)
	if err != nil {
		respondError(c, err, "Failed to send message")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *MessageHandler) MarkAsRead(c *gin.Context) {
	convID, ok := parseID(c, "conversation_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	marked, err := h.messages.MarkMessagesAsRead(c.Request.Context(), middleware.UserID(c), convID)
	if err != nil {
		respondError(c, err, "Failed to mark messages as read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}
