package handlers

import (
	"net/http"

	"campus-dating-app/internal/middleware"
	"campus-dating-app/internal/services"

	"github.com/gin-gonic/gin"
)

type ExploreHandler struct {
	discovery *services.DiscoveryService
}

func NewExploreHandler(discovery *services.DiscoveryService) *ExploreHandler {
	return &ExploreHandler{discovery: discovery}
}

func (h *ExploreHandler) Explore(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	candidates, err := h.discovery.Explore(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		respondError(c, err, "Failed to load candidates")
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}
