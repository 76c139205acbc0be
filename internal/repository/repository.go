// Package repository persists profiles, swipes, matches, conversations,
// messages and the interest catalog.
package repository

import (
	"context"
	"errors"
	"time"

	"campus-dating-app/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the persistence surface of the matching and messaging engine.
//
// WithTx runs fn against a store bound to a single transaction: every write
// made through it commits together or not at all. Calling WithTx on a
// transactional store runs fn in the same transaction.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Store) error) error

	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfile(ctx context.Context, id uint) (*models.Profile, error)
	GetProfileByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	GetProfiles(ctx context.Context, ids []uint) ([]models.Profile, error)
	// ListActiveProfiles filters by gender unless gender is empty or "any".
	ListActiveProfiles(ctx context.Context, gender string) ([]models.Profile, error)

	// LockPair serializes concurrent operations on the same two profiles for
	// the rest of the transaction.
	LockPair(ctx context.Context, a, b uint) error

	UpsertSwipe(ctx context.Context, swipe *models.Swipe) error
	GetSwipe(ctx context.Context, actorID, targetID uint) (*models.Swipe, error)
	ListSwipesByActor(ctx context.Context, actorID uint) ([]models.Swipe, error)
	DeleteSwipesBetween(ctx context.Context, a, b uint) error

	// CreateMatchIfAbsent inserts the match unless one already exists for the
	// same canonical pair. It reports whether this call created it.
	CreateMatchIfAbsent(ctx context.Context, match *models.Match) (bool, error)
	GetMatch(ctx context.Context, id uint) (*models.Match, error)
	// FindMatch looks a match up by its unordered pair. No service calls it;
	// tests use it to inspect what the match flow persisted.
	FindMatch(ctx context.Context, a, b uint) (*models.Match, error)
	ListMatches(ctx context.Context, profileID uint) ([]models.Match, error)
	MarkMatchesSeen(ctx context.Context, profileID uint) (int64, error)
	DeleteMatch(ctx context.Context, id uint) error

	// CreateConversationIfAbsent returns the conversation for conv.MatchID,
	// inserting conv when there is none yet.
	CreateConversationIfAbsent(ctx context.Context, conv *models.Conversation) (*models.Conversation, bool, error)
	GetConversation(ctx context.Context, id uint) (*models.Conversation, error)
	GetConversationByMatch(ctx context.Context, matchID uint) (*models.Conversation, error)
	ListConversations(ctx context.Context, profileID uint) ([]models.Conversation, error)
	UpdateConversationPreview(ctx context.Context, id uint, preview string, at time.Time) error
	IncrementUnread(ctx context.Context, conv *models.Conversation, profileID uint) error
	ResetUnread(ctx context.Context, conv *models.Conversation, profileID uint) error
	// DeleteConversationByMatch removes the conversation and its messages.
	DeleteConversationByMatch(ctx context.Context, matchID uint) error

	CreateMessage(ctx context.Context, msg *models.Message) error
	// ListMessagesBefore returns up to limit messages strictly older than
	// before (or the newest ones when before is nil), newest first.
	ListMessagesBefore(ctx context.Context, conversationID uint, before *time.Time, limit int) ([]models.Message, error)
	// MarkMessagesRead stamps unread messages not sent by readerID.
	MarkMessagesRead(ctx context.Context, conversationID, readerID uint, at time.Time) (int64, error)
	// CountUnread counts unread messages addressed to readerID. Like FindMatch
	// it is an inspection helper for tests, checked against the conversation's
	// unread counter.
	CountUnread(ctx context.Context, conversationID, readerID uint) (int64, error)

	ListInterests(ctx context.Context) ([]models.Interest, error)
	CountInterests(ctx context.Context) (int64, error)
	// CreateInterest fails with ErrDuplicate when the name is taken.
	CreateInterest(ctx context.Context, interest *models.Interest) error
}
