package handlers

import (
	"campus-dating-app/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Explore   *ExploreHandler
	Matches   *MatchHandler
	Messages  *MessageHandler
	Presence  *PresenceHandler
	Interests *InterestHandler
}

// RegisterRoutes mounts the engine endpoints. The group must already run
// middleware.Authenticate; reads stay open to anonymous callers.
func RegisterRoutes(v1 *gin.RouterGroup, h Handlers) {
	auth := middleware.AuthRequired()

	v1.GET("/explore", h.Explore.Explore)
	v1.POST("/swipes", auth, h.Matches.Swipe)

	matches := v1.Group("/matches")
	{
		matches.GET("", h.Matches.GetMatches)
		matches.POST("/seen", auth, h.Matches.MarkSeen)
		matches.DELETE("/:match_id", auth, h.Matches.Unmatch)
		matches.POST("/:match_id/conversation", auth, h.Matches.OpenConversation)
	}

	conversations := v1.Group("/conversations")
	{
		conversations.GET("", h.Messages.GetConversations)
		conversations.GET("/:conversation_id/messages", h.Messages.GetMessages)
		conversations.POST("/:conversation_id/messages", auth, h.Messages.SendMessage)
		conversations.PUT("/:conversation_id/read", auth, h.Messages.MarkAsRead)
	}

	presence := v1.Group("/presence")
	{
		presence.POST("/heartbeat", auth, h.Presence.Heartbeat)
		presence.GET("/:profile_id", h.Presence.GetStatus)
		presence.POST("/query", h.Presence.Query)
	}

	interests := v1.Group("/interests")
	{
		interests.GET("", h.Interests.GetAll)
		interests.POST("", auth, h.Interests.Create)
		interests.POST("/seed", auth, h.Interests.Seed)
	}
}
