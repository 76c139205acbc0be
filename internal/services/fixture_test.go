package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"campus-dating-app/internal/codec"
	"campus-dating-app/internal/config"
	"campus-dating-app/internal/models"
	"campus-dating-app/internal/presence"
	"campus-dating-app/internal/repository"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type notification struct {
	profiles  []uint
	eventType string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(profileIDs []uint, eventType string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{profiles: profileIDs, eventType: eventType})
}

func (n *recordingNotifier) count(eventType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, sent := range n.sent {
		if sent.eventType == eventType {
			total++
		}
	}
	return total
}

type fixture struct {
	ctx      context.Context
	cfg      *config.Config
	clock    *fakeClock
	store    *repository.MemoryStore
	codec    *codec.Codec
	tracker  *presence.Tracker
	notifier *recordingNotifier

	discovery *DiscoveryService
	matches   *MatchService
	messages  *MessageService
	presence  *PresenceService
	interests *InterestService
}

var fixtureNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.Load()
	cfg.MatchGreeting = ""

	c, err := codec.New(cfg.ContentKey)
	require.NoError(t, err)

	clock := &fakeClock{now: fixtureNow}
	tracker := presence.NewTracker(presence.NewMemoryStore(), cfg.PresenceTimeout).WithClock(clock.Now)

	f := &fixture{
		ctx:      context.Background(),
		cfg:      cfg,
		clock:    clock,
		store:    repository.NewMemoryStore(),
		codec:    c,
		tracker:  tracker,
		notifier: &recordingNotifier{},
	}
	f.rebuild()
	return f
}

func (f *fixture) deps() Deps {
	log, _ := test.NewNullLogger()
	return Deps{
		Store:    f.store,
		Codec:    f.codec,
		Presence: f.tracker,
		Notifier: f.notifier,
		Log:      log,
		Now:      f.clock.Now,
	}
}

func (f *fixture) rebuild() {
	deps := f.deps()
	f.discovery = NewDiscoveryService(deps, f.cfg)
	f.matches = NewMatchService(deps, f.cfg)
	f.messages = NewMessageService(deps, f.cfg)
	f.presence = NewPresenceService(deps, f.cfg)
	f.interests = NewInterestService(deps, f.cfg)
}

// birthForAge returns a birth date making the profile age years old on
// fixtureNow.
func birthForAge(age int) time.Time {
	return time.Date(fixtureNow.Year()-age, time.January, 10, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) interest(t *testing.T, names ...string) []models.Interest {
	t.Helper()
	out := make([]models.Interest, 0, len(names))
	for _, name := range names {
		interest := &models.Interest{Name: name}
		err := f.store.CreateInterest(f.ctx, interest)
		if err == repository.ErrDuplicate {
			all, listErr := f.store.ListInterests(f.ctx)
			require.NoError(t, listErr)
			for _, known := range all {
				if known.Name == name {
					k := known
					interest = &k
				}
			}
		} else {
			require.NoError(t, err)
		}
		out = append(out, *interest)
	}
	return out
}

// profile creates an active 21 year old profile owned by userID.
func (f *fixture) profile(t *testing.T, userID uint, opts ...func(*models.Profile)) *models.Profile {
	t.Helper()
	p := &models.Profile{
		UserID:          userID,
		FullName:        "User " + string(rune('A'+userID-1)),
		DateOfBirth:     birthForAge(21),
		Gender:          models.GenderFemale,
		IsActive:        true,
		MinAge:          18,
		MaxAge:          30,
		PreferredGender: models.GenderAny,
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, f.store.CreateProfile(f.ctx, p))
	return p
}

func (f *fixture) withInterests(t *testing.T, names ...string) func(*models.Profile) {
	interests := f.interest(t, names...)
	return func(p *models.Profile) { p.Interests = interests }
}

// match makes users a and b like each other and returns the match id.
func (f *fixture) match(t *testing.T, userA, userB uint, profileA, profileB *models.Profile) uint {
	t.Helper()
	_, err := f.matches.Swipe(f.ctx, userA, profileB.ID, models.ActionLike)
	require.NoError(t, err)
	result, err := f.matches.Swipe(f.ctx, userB, profileA.ID, models.ActionLike)
	require.NoError(t, err)
	require.NotNil(t, result.Match)
	return result.Match.ID
}

// conversation matches two fresh profiles and opens their conversation.
func (f *fixture) conversation(t *testing.T) (convID uint, a, b *models.Profile) {
	t.Helper()
	a = f.profile(t, 1)
	b = f.profile(t, 2)
	matchID := f.match(t, 1, 2, a, b)
	convID, err := f.messages.GetOrCreateConversation(f.ctx, 1, matchID)
	require.NoError(t, err)
	return convID, a, b
}
