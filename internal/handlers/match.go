package handlers

import (
	"net/http"

	"campus-dating-app/internal/middleware"
	"campus-dating-app/internal/models"
	"campus-dating-app/internal/services"

	"github.com/gin-gonic/gin"
)

type MatchHandler struct {
	matches  *services.MatchService
	messages *services.MessageService
}

type SwipeRequest struct {
	TargetID uint               `json:"target_id" binding:"required"`
	Action   models.SwipeAction `json:"action" binding:"required,oneof=LIKE DISLIKE"`
}

func NewMatchHandler(matches *services.MatchService, messages *services.MessageService) *MatchHandler {
	return &MatchHandler{matches: matches, messages: messages}
}

func (h *MatchHandler) Swipe(c *gin.Context) {
	var req SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.matches.Swipe(c.Request.Context(), middleware.UserID(c), req.TargetID, req.Action)
	if err != nil {
		respondError(c, err, "Failed to record swipe")
		return
	}

	if result.Match != nil {
		c.JSON(http.StatusCreated, gin.H{"message": "It's a match!", "success": true, "match": result.Match})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": result.Success})
}

func (h *MatchHandler) GetMatches(c *gin.Context) {
	sortBy := c.DefaultQuery("sort", services.SortNewest)
	switch sortBy {
	case services.SortNewest, services.SortOldest, services.SortName:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort must be one of newest, oldest, name"})
		return
	}

	matches, err := h.matches.Matches(c.Request.Context(), middleware.UserID(c), sortBy)
	if err != nil {
		respondError(c, err, "Failed to fetch matches")
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *MatchHandler) MarkSeen(c *gin.Context) {
	if err := h.matches.MarkMatchesSeen(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondError(c, err, "Failed to mark matches seen")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Matches marked as seen"})
}

func (h *MatchHandler) Unmatch(c *gin.Context) {
	matchID, ok := parseID(c, "match_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match ID"})
		return
	}

	if err := h.matches.Unmatch(c.Request.Context(), middleware.UserID(c), matchID); err != nil {
		respondError(c, err, "Failed to unmatch")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unmatched successfully"})
}

// OpenConversation returns the match's conversation, creating it on first use.
func (h *MatchHandler) OpenConversation(c *gin.Context) {
	matchID, ok := parseID(c, "match_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match ID"})
		return
	}

	convID, err := h.messages.GetOrCreateConversation(c.Request.Context(), middleware.UserID(c), matchID)
	if err != nil {
		respondError(c, err, "Failed to open conversation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation_id": convID})
}
