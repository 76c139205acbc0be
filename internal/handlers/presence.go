package handlers

import (
	"net/http"

	"campus-dating-app/internal/middleware"
	"campus-dating-app/internal/services"

	"github.com/gin-gonic/gin"
)

type PresenceHandler struct {
	presence *services.PresenceService
}

type PresenceQueryRequest struct {
	ProfileIDs []uint `json:"profile_ids" binding:"required,max=200"`
}

func NewPresenceHandler(presence *services.PresenceService) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	if err := h.presence.Heartbeat(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondError(c, err, "Failed to record heartbeat")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PresenceHandler) GetStatus(c *gin.Context) {
	profileID, ok := parseID(c, "profile_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile ID"})
		return
	}

	online, err := h.presence.IsOnline(c.Request.Context(), middleware.UserID(c), profileID)
	if err != nil {
		respondError(c, err, "Failed to load presence")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile_id": profileID, "online": online})
}

func (h *PresenceHandler) Query(c *gin.Context) {
	var req PresenceQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	online, err := h.presence.Online(c.Request.Context(), middleware.UserID(c), req.ProfileIDs)
	if err != nil {
		respondError(c, err, "Failed to load presence")
		return
	}
	c.JSON(http.StatusOK, gin.H{"online": online})
}
