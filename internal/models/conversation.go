package models

import "time"

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageSystem MessageType = "system"
)

// Conversation is the 1:1 channel of a match. Participants mirror the match
// pair; unread counters are kept per participant.
type Conversation struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	MatchID            uint       `json:"match_id" gorm:"uniqueIndex;not null"`
	Participant1ID     uint       `json:"participant1_id" gorm:"not null;index"`
	Participant2ID     uint       `json:"participant2_id" gorm:"not null;index"`
	LastMessagePreview *string    `json:"-"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	UnreadCount1       int        `json:"-" gorm:"not null;default:0"`
	UnreadCount2       int        `json:"-" gorm:"not null;default:0"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (c *Conversation) HasParticipant(profileID uint) bool {
	return profileID != 0 && (c.Participant1ID == profileID || c.Participant2ID == profileID)
}

func (c *Conversation) Partner(profileID uint) uint {
	if c.Participant1ID == profileID {
		return c.Participant2ID
	}
	return c.Participant1ID
}

// UnreadFor returns the unread counter belonging to profileID.
func (c *Conversation) UnreadFor(profileID uint) int {
	if c.Participant1ID == profileID {
		return c.UnreadCount1
	}
	return c.UnreadCount2
}

// UnreadColumn names the counter column owned by profileID.
func (c *Conversation) UnreadColumn(profileID uint) string {
	if c.Participant1ID == profileID {
		return "unread_count1"
	}
	return "unread_count2"
}

// Message content is stored obfuscated. ReadAt is nil until the recipient
// marks the conversation as read.
type Message struct {
	ID             uint        `json:"id" gorm:"primaryKey"`
	ConversationID uint        `json:"conversation_id" gorm:"not null;index:idx_messages_conversation_created"`
	SenderID       uint        `json:"sender_id" gorm:"not null"`
	Content        string      `json:"-" gorm:"not null"`
	Type           MessageType `json:"type" gorm:"type:varchar(16);default:text"`
	CreatedAt      time.Time   `json:"created_at" gorm:"index:idx_messages_conversation_created"`
	ReadAt         *time.Time  `json:"read_at,omitempty"`
}
