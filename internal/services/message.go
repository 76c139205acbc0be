package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"campus-dating-app/internal/config"
	"campus-dating-app/internal/events"
	"campus-dating-app/internal/metrics"
	"campus-dating-app/internal/models"
	"campus-dating-app/internal/repository"

	"github.com/sirupsen/logrus"
)

type ConversationSummary struct {
	ID            uint           `json:"id"`
	MatchID       uint           `json:"match_id"`
	Partner       ProfileSummary `json:"partner"`
	PartnerOnline bool           `json:"partner_online"`
	LastMessage   *string        `json:"last_message,omitempty"`
	LastMessageAt *time.Time     `json:"last_message_at,omitempty"`
	UnreadCount   int            `json:"unread_count"`
	CreatedAt     time.Time      `json:"created_at"`
}

type MessageView struct {
	ID        uint               `json:"id"`
	SenderID  uint               `json:"sender_id"`
	Content   string             `json:"content"`
	Type      models.MessageType `json:"type"`
	IsMine    bool               `json:"is_mine"`
	CreatedAt time.Time          `json:"created_at"`
	ReadAt    *time.Time         `json:"read_at,omitempty"`
}

// MessagePage is one page of history in chronological order. NextCursor is
// the timestamp of the oldest message returned.
type MessagePage struct {
	Messages   []MessageView `json:"messages"`
	HasMore    bool          `json:"has_more"`
	NextCursor *time.Time    `json:"next_cursor,omitempty"`
}

type MessageService struct {
	Deps
	pageSize      int
	maxPageSize   int
	previewLength int
	greeting      string
}

func NewMessageService(deps Deps, cfg *config.Config) *MessageService {
	return &MessageService{
		Deps:          deps.withDefaults(),
		pageSize:      cfg.MessagePageSize,
		maxPageSize:   cfg.MessageMaxPageSize,
		previewLength: cfg.PreviewLength,
		greeting:      cfg.MatchGreeting,
	}
}

// GetOrCreateConversation returns the conversation of a match, creating it
// on first use. Repeated calls return the same id.
func (s *MessageService) GetOrCreateConversation(ctx context.Context, userID, matchID uint) (uint, error) {
	caller, err := s.resolveCaller(ctx, userID)
	if err != nil {
		return 0, err
	}

	var (
		conv    *models.Conversation
		created bool
	)
	err = s.Store.WithTx(ctx, func(tx repository.Store) error {
		match, err := tx.GetMatch(ctx, matchID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: match %d", ErrNotFound, matchID)
		}
		if err != nil {
			return err
		}
		if !match.Involves(caller.ID) {
			return ErrNotParticipant
		}

		conv, created, err = tx.CreateConversationIfAbsent(ctx, &models.Conversation{
			MatchID:        match.ID,
			Participant1ID: match.Profile1ID,
			Participant2ID: match.Profile2ID,
		})
		if err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created {
		s.Log.WithFields(logrus.Fields{"conversation_id": conv.ID, "match_id": matchID}).Info("Conversation created")
		if s.greeting != "" {
			if _, err := s.SendSystemMessage(ctx, conv.ID, s.greeting); err != nil {
				s.Log.WithError(err).WithField("conversation_id", conv.ID).Warn("Failed to post greeting")
			}
		}
	}
	return conv.ID, nil
}

// Conversations lists the caller's conversations, most recent activity first.
func (s *MessageService) Conversations(ctx context.Context, userID uint) ([]ConversationSummary, error) {
	caller, ok, err := s.readableCaller(ctx, userID)
	if err != nil || !ok {
		return []ConversationSummary{}, err
	}

	convs, err := s.Store.ListConversations(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}

	partnerIDs := make([]uint, 0, len(convs))
	for i := range convs {
		partnerIDs = append(partnerIDs, convs[i].Partner(caller.ID))
	}
	partners, err := s.profilesByID(ctx, partnerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load partners: %w", err)
	}

	online := map[uint]bool{}
	if s.Presence != nil {
		if online, err = s.Presence.Online(ctx, partnerIDs); err != nil {
			s.Log.WithError(err).Warn("Failed to load presence")
			online = map[uint]bool{}
		}
	}

	summaries := make([]ConversationSummary, 0, len(convs))
	for i := range convs {
		conv := &convs[i]
		partnerID := conv.Partner(caller.ID)
		partner, ok := partners[partnerID]
		if !ok {
			continue
		}

		summary := ConversationSummary{
			ID:            conv.ID,
			MatchID:       conv.MatchID,
			Partner:       s.summarize(ctx, partner),
			PartnerOnline: online[partnerID],
			LastMessageAt: conv.LastMessageAt,
			UnreadCount:   conv.UnreadFor(caller.ID),
			CreatedAt:     conv.CreatedAt,
		}
		if conv.LastMessagePreview != nil {
			preview := s.Codec.Decode(*conv.LastMessagePreview)
			summary.LastMessage = &preview
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// SendMessage stores a text or image message from the caller and bumps the
// other participant's unread counter.
func (s *MessageService) SendMessage(ctx context.Context, userID, conversationID uint, content string, msgType models.MessageType) (uint, error) {
	if msgType == "" {
		msgType = models.MessageText
	}
	if msgType != models.MessageText && msgType != models.MessageImage {
		return 0, fmt.Errorf("%w: unsupported message type %q", ErrInvalidInput, msgType)
	}
	if strings.TrimSpace(content) == "" {
		return 0, fmt.Errorf("%w: message content is empty", ErrInvalidInput)
	}
	if !utf8.ValidString(content) {
		return 0, fmt.Errorf("%w: message content is not valid UTF-8", ErrInvalidInput)
	}

	sender, err := s.resolveCaller(ctx, userID)
	if err != nil {
		return 0, err
	}

	var (
		msg  *models.Message
		conv *models.Conversation
	)
	err = s.Store.WithTx(ctx, func(tx repository.Store) error {
		conv, err = s.lockConversation(ctx, tx, conversationID)
		if err != nil {
			return err
		}
		if !conv.HasParticipant(sender.ID) {
			return ErrNotParticipant
		}

		msg, err = s.appendMessage(ctx, tx, conv, sender.ID, content, msgType)
		if err != nil {
			return err
		}
		return tx.IncrementUnread(ctx, conv, conv.Partner(sender.ID))
	})
	if err != nil {
		return 0, err
	}

	s.announce(ctx, conv, msg, content)
	return msg.ID, nil
}

// SendSystemMessage posts an app-generated notice. It is attributed to the
// first participant, created already read, and leaves unread counters alone.
func (s *MessageService) SendSystemMessage(ctx context.Context, conversationID uint, content string) (uint, error) {
	if strings.TrimSpace(content) == "" {
		return 0, fmt.Errorf("%w: message content is empty", ErrInvalidInput)
	}
	if !utf8.ValidString(content) {
		return 0, fmt.Errorf("%w: message content is not valid UTF-8", ErrInvalidInput)
	}

	var (
		msg  *models.Message
		conv *models.Conversation
		err  error
	)
	err = s.Store.WithTx(ctx, func(tx repository.Store) error {
		conv, err = s.lockConversation(ctx, tx, conversationID)
		if err != nil {
			return err
		}
		msg, err = s.appendMessage(ctx, tx, conv, conv.Participant1ID, content, models.MessageSystem)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.announce(ctx, conv, msg, content)
	return msg.ID, nil
}

// GetMessages pages backwards through history. cursor is the NextCursor of
// the previous page; nil starts from the newest message.
func (s *MessageService) GetMessages(ctx context.Context, userID, conversationID uint, limit int, cursor *time.Time) (*MessagePage, error) {
	empty := &MessagePage{Messages: []MessageView{}}

	reader, ok, err := s.readableCaller(ctx, userID)
	if err != nil || !ok {
		return empty, err
	}

	conv, err := s.Store.GetConversation(ctx, conversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if !conv.HasParticipant(reader.ID) {
		return empty, nil
	}

	if limit <= 0 {
		limit = s.pageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	messages, err := s.Store.ListMessagesBefore(ctx, conv.ID, cursor, limit+1)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	page := &MessagePage{HasMore: len(messages) > limit}
	if page.HasMore {
		messages = messages[:limit]
	}

	page.Messages = make([]MessageView, len(messages))
	for i, msg := range messages {
		page.Messages[len(messages)-1-i] = MessageView{
			ID:        msg.ID,
			SenderID:  msg.SenderID,
			Content:   s.Codec.Decode(msg.Content),
			Type:      msg.Type,
			IsMine:    msg.SenderID == reader.ID && msg.Type != models.MessageSystem,
			CreatedAt: msg.CreatedAt,
			ReadAt:    msg.ReadAt,
		}
	}
	if len(page.Messages) > 0 {
		oldest := page.Messages[0].CreatedAt
		page.NextCursor = &oldest
	}
	return page, nil
}

// MarkMessagesAsRead stamps every unread message from the other participant
// and resets the caller's unread counter. It returns how many were stamped.
func (s *MessageService) MarkMessagesAsRead(ctx context.Context, userID, conversationID uint) (int64, error) {
	reader, err := s.resolveCaller(ctx, userID)
	if err != nil {
		return 0, err
	}

	var (
		marked int64
		conv   *models.Conversation
	)
	err = s.Store.WithTx(ctx, func(tx repository.Store) error {
		conv, err = s.lockConversation(ctx, tx, conversationID)
		if err != nil {
			return err
		}
		if !conv.HasParticipant(reader.ID) {
			return ErrNotParticipant
		}

		marked, err = tx.MarkMessagesRead(ctx, conv.ID, reader.ID, s.Now())
		if err != nil {
			return fmt.Errorf("failed to mark messages read: %w", err)
		}
		return tx.ResetUnread(ctx, conv, reader.ID)
	})
	if err != nil {
		return 0, err
	}

	if marked > 0 {
		payload := map[string]interface{}{
			"conversation_id": conv.ID,
			"reader_id":       reader.ID,
			"count":           marked,
		}
		s.Notifier.Notify([]uint{conv.Partner(reader.ID)}, "read", payload)
		s.publish(ctx, events.MessagesRead, conversationKey(conv.ID), payload)
	}
	return marked, nil
}

func (s *MessageService) lockConversation(ctx context.Context, tx repository.Store, id uint) (*models.Conversation, error) {
	conv, err := tx.GetConversation(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: conversation %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return conv, nil
}

// appendMessage stores msg and refreshes the conversation preview. System
// messages are stored already read.
func (s *MessageService) appendMessage(ctx context.Context, tx repository.Store, conv *models.Conversation,
	senderID uint, content string, msgType models.MessageType) (*models.Message, error) {

	at := s.nextTimestamp(conv)
	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        s.Codec.Encode(content),
		Type:           msgType,
		CreatedAt:      at,
	}
	if msgType == models.MessageSystem {
		msg.ReadAt = &at
	}
	if err := tx.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	preview := s.Codec.Encode(truncate(content, s.previewLength))
	if err := tx.UpdateConversationPreview(ctx, conv.ID, preview, at); err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	conv.LastMessageAt = &at
	return msg, nil
}

// nextTimestamp keeps message times strictly increasing within a
// conversation so that timestamp cursors neither skip nor repeat messages.
func (s *MessageService) nextTimestamp(conv *models.Conversation) time.Time {
	at := s.Now().UTC().Truncate(time.Microsecond)
	if conv.LastMessageAt != nil && !at.After(*conv.LastMessageAt) {
		at = conv.LastMessageAt.UTC().Add(time.Microsecond)
	}
	return at
}

func (s *MessageService) announce(ctx context.Context, conv *models.Conversation, msg *models.Message, content string) {
	metrics.MessagesSent.WithLabelValues(string(msg.Type)).Inc()

	payload := map[string]interface{}{
		"conversation_id": conv.ID,
		"message_id":      msg.ID,
		"sender_id":       msg.SenderID,
		"type":            msg.Type,
		"content":         content,
		"created_at":      msg.CreatedAt,
	}
	s.Notifier.Notify([]uint{conv.Participant1ID, conv.Participant2ID}, "message", payload)

	// Event consumers get metadata only; content stays in the database.
	s.publish(ctx, events.MessageSent, conversationKey(conv.ID), map[string]interface{}{
		"conversation_id": conv.ID,
		"message_id":      msg.ID,
		"sender_id":       msg.SenderID,
		"type":            msg.Type,
	})
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func conversationKey(id uint) string {
	return "conversation:" + strconv.FormatUint(uint64(id), 10)
}

// ConversationPartner returns the other participant of a conversation the
// profile belongs to.
func (s *MessageService) ConversationPartner(ctx context.Context, profileID, conversationID uint) (uint, error) {
	conv, err := s.Store.GetConversation(ctx, conversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, fmt.Errorf("%w: conversation %d", ErrNotFound, conversationID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load conversation: %w", err)
	}
	if !conv.HasParticipant(profileID) {
		return 0, ErrNotParticipant
	}
	return conv.Partner(profileID), nil
}

// Partners lists every profile the given profile has a conversation with.
func (s *MessageService) Partners(ctx context.Context, profileID uint) ([]uint, error) {
	convs, err := s.Store.ListConversations(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	partners := make([]uint, 0, len(convs))
	for i := range convs {
		partners = append(partners, convs[i].Partner(profileID))
	}
	return partners, nil
}
