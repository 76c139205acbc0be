// Package websocket fans engine events out to connected profiles.
package websocket

import (
	"context"
	"encoding/json"

	"campus-dating-app/internal/metrics"

	"github.com/sirupsen/logrus"
)

// Frame is the envelope of every server-sent message.
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type PresenceEvent struct {
	ProfileID uint `json:"profile_id"`
	Online    bool `json:"online"`
}

type TypingEvent struct {
	ConversationID uint `json:"conversation_id"`
	ProfileID      uint `json:"profile_id"`
	IsTyping       bool `json:"is_typing"`
}

// Presence is what a connection needs from the presence service.
type Presence interface {
	ProfileForUser(ctx context.Context, userID uint) (uint, error)
	HeartbeatProfile(ctx context.Context, profileID uint) error
}

// Conversations is what a connection needs from the message service.
type Conversations interface {
	ConversationPartner(ctx context.Context, profileID, conversationID uint) (uint, error)
	Partners(ctx context.Context, profileID uint) ([]uint, error)
}

type delivery struct {
	profileIDs []uint
	frame      []byte
}

// Hub tracks live connections per profile. All registry changes happen on
// the Run goroutine.
type Hub struct {
	clients    map[uint]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}

	presence      Presence
	conversations Conversations
	origins       map[string]struct{}
	log           logrus.FieldLogger
}

func NewHub(presence Presence, conversations Conversations, allowedOrigins []string, log logrus.FieldLogger) *Hub {
	h := &Hub{
		clients:       make(map[uint]map[*Client]struct{}),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		deliver:       make(chan delivery, 256),
		done:          make(chan struct{}),
		presence:      presence,
		conversations: conversations,
		log:           log,
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			h.origins = nil
			break
		}
		if h.origins == nil {
			h.origins = make(map[string]struct{})
		}
		h.origins[origin] = struct{}{}
	}
	return h
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for profileID, set := range h.clients {
				for client := range set {
					h.drop(profileID, client)
				}
			}
			return

		case client := <-h.register:
			set, ok := h.clients[client.profileID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.profileID] = set
			}
			set[client] = struct{}{}
			metrics.Connections.Inc()
			h.log.WithField("profile_id", client.profileID).Debug("Client connected")
			if !ok {
				go h.announcePresence(client.profileID, true)
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client.profileID][client]; ok {
				h.drop(client.profileID, client)
				h.log.WithField("profile_id", client.profileID).Debug("Client disconnected")
			}

		case d := <-h.deliver:
			for _, profileID := range d.profileIDs {
				for client := range h.clients[profileID] {
					select {
					case client.send <- d.frame:
					default:
						h.log.WithField("profile_id", profileID).Warn("Dropping slow websocket client")
						h.drop(profileID, client)
					}
				}
			}
		}
	}
}

func (h *Hub) drop(profileID uint, client *Client) {
	set := h.clients[profileID]
	delete(set, client)
	close(client.send)
	metrics.Connections.Dec()
	if len(set) == 0 {
		delete(h.clients, profileID)
		go h.announcePresence(profileID, false)
	}
}

// Notify queues a frame for every connection of the given profiles. It never
// blocks; frames are dropped when the hub is saturated.
func (h *Hub) Notify(profileIDs []uint, eventType string, payload interface{}) {
	frame, err := json.Marshal(Frame{Type: eventType, Data: payload})
	if err != nil {
		h.log.WithError(err).WithField("event", eventType).Error("Failed to encode websocket frame")
		return
	}

	select {
	case h.deliver <- delivery{profileIDs: profileIDs, frame: frame}:
	default:
		h.log.WithField("event", eventType).Warn("Websocket hub saturated, dropping frame")
	}
}

func (h *Hub) announcePresence(profileID uint, online bool) {
	partners, err := h.conversations.Partners(context.Background(), profileID)
	if err != nil {
		h.log.WithError(err).WithField("profile_id", profileID).Warn("Failed to load presence subscribers")
		return
	}
	if len(partners) > 0 {
		h.Notify(partners, "presence", PresenceEvent{ProfileID: profileID, Online: online})
	}
}

func (h *Hub) checkOrigin(origin string) bool {
	if h.origins == nil || origin == "" {
		return true
	}
	_, ok := h.origins[origin]
	return ok
}
