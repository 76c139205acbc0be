package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"campus-dating-app/internal/middleware"
	"campus-dating-app/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	profileID uint
}

type inbound struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversation_id"`
}

// HandleWebSocket upgrades an authenticated request and attaches the
// connection to the caller's profile.
func HandleWebSocket(hub *Hub, c *gin.Context) {
	profileID, err := hub.presence.ProfileForUser(c.Request.Context(), middleware.UserID(c))
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	case errors.Is(err, services.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve profile"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return hub.checkOrigin(r.Header.Get("Origin")) },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		profileID: profileID,
	}
	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}
	client.heartbeat()

	go client.writePump()
	go client.readPump()
}

func (c *Client) heartbeat() {
	if err := c.hub.presence.HeartbeatProfile(context.Background(), c.profileID); err != nil {
		c.hub.log.WithError(err).WithField("profile_id", c.profileID).Warn("Failed to record heartbeat")
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).WithField("profile_id", c.profileID).Warn("WebSocket read error")
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.log.WithError(err).Debug("Ignoring malformed websocket frame")
			continue
		}

		switch msg.Type {
		case "heartbeat":
			c.heartbeat()
		case "typing", "stop_typing":
			c.relayTyping(msg.ConversationID, msg.Type == "typing")
		}
	}
}

func (c *Client) relayTyping(conversationID uint, typing bool) {
	partner, err := c.hub.conversations.ConversationPartner(context.Background(), c.profileID, conversationID)
	if err != nil {
		c.hub.log.WithError(err).WithFields(logrus.Fields{
			"profile_id":      c.profileID,
			"conversation_id": conversationID,
		}).Debug("Ignoring typing indicator")
		return
	}
	c.hub.Notify([]uint{partner}, "typing", TypingEvent{
		ConversationID: conversationID,
		ProfileID:      c.profileID,
		IsTyping:       typing,
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.log.WithError(err).WithField("profile_id", c.profileID).Warn("WebSocket write error")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
