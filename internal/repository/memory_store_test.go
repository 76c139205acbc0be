package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"campus-dating-app/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertSwipeKeepsOneRecordPerOrderedPair(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	first := &models.Swipe{ActorID: 1, TargetID: 2, Action: models.ActionDislike, SwipedAt: now}
	require.NoError(t, store.UpsertSwipe(ctx, first))
	second := &models.Swipe{ActorID: 1, TargetID: 2, Action: models.ActionLike, SwipedAt: now.Add(time.Minute)}
	require.NoError(t, store.UpsertSwipe(ctx, second))

	swipes, err := store.ListSwipesByActor(ctx, 1)
	require.NoError(t, err)
	require.Len(t, swipes, 1)
	assert.Equal(t, models.ActionLike, swipes[0].Action)
	assert.Equal(t, first.ID, second.ID)
}

func TestCreateMatchIfAbsentIsSingleWriter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	created := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := uint(5), uint(9)
			if i%2 == 0 {
				a, b = b, a
			}
			ok, err := store.CreateMatchIfAbsent(ctx, models.NewMatch(a, b))
			assert.NoError(t, err)
			created <- ok
		}(i)
	}
	wg.Wait()
	close(created)

	winners := 0
	for ok := range created {
		if ok {
			winners++
		}
	}
	assert.Equal(t, 1, winners)

	matches, err := store.ListMatches(ctx, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, uint(5), matches[0].Profile1ID)
	assert.Equal(t, uint(9), matches[0].Profile2ID)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx Store) error {
		_, err := tx.CreateMatchIfAbsent(ctx, models.NewMatch(1, 2))
		require.NoError(t, err)
		require.NoError(t, tx.UpsertSwipe(ctx, &models.Swipe{ActorID: 1, TargetID: 2, Action: models.ActionLike}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.FindMatch(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetSwipe(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithTxNestedRunsInSameTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.WithTx(ctx, func(tx Store) error {
		return tx.WithTx(ctx, func(inner Store) error {
			return inner.CreateInterest(ctx, &models.Interest{Name: "Chess"})
		})
	})
	require.NoError(t, err)

	count, err := store.CountInterests(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestConversationIsUniquePerMatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, created, err := store.CreateConversationIfAbsent(ctx, &models.Conversation{MatchID: 3, Participant1ID: 1, Participant2ID: 2})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := store.CreateConversationIfAbsent(ctx, &models.Conversation{MatchID: 3, Participant1ID: 1, Participant2ID: 2})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestListMessagesBeforeOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	conv, _, err := store.CreateConversationIfAbsent(ctx, &models.Conversation{MatchID: 1, Participant1ID: 1, Participant2ID: 2})
	require.NoError(t, err)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.CreateMessage(ctx, &models.Message{
			ConversationID: conv.ID,
			SenderID:       1,
			Content:        "x",
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}))
	}

	page, err := store.ListMessagesBefore(ctx, conv.ID, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].CreatedAt.Equal(base.Add(4*time.Second)))

	cursor := base.Add(2 * time.Second)
	page, err = store.ListMessagesBefore(ctx, conv.ID, &cursor, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[1].CreatedAt.Equal(base))
}

func TestCreateInterestRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.CreateInterest(ctx, &models.Interest{Name: "Music"}))
	assert.ErrorIs(t, store.CreateInterest(ctx, &models.Interest{Name: "Music"}), ErrDuplicate)
}
