package handlers

import (
	"net/http"

	"campus-dating-app/internal/services"

	"github.com/gin-gonic/gin"
)

type InterestHandler struct {
	interests *services.InterestService
}

type CreateInterestRequest struct {
	Name string  `json:"name" binding:"required"`
	Icon *string `json:"icon"`
}

func NewInterestHandler(interests *services.InterestService) *InterestHandler {
	return &InterestHandler{interests: interests}
}

func (h *InterestHandler) GetAll(c *gin.Context) {
	interests, err := h.interests.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch interests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"interests": interests})
}

func (h *InterestHandler) Create(c *gin.Context) {
	var req CreateInterestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	interest, err := h.interests.Create(c.Request.Context(), req.Name, req.Icon)
	if err != nil {
		respondError(c, err, "Failed to create interest")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"interest": interest})
}

func (h *InterestHandler) Seed(c *gin.Context) {
	inserted, err := h.interests.Seed(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to seed interests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}
