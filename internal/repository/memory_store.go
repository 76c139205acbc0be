package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"campus-dating-app/internal/models"
)

type swipeKey struct {
	actor, target uint
}

type pairKey struct {
	p1, p2 uint
}

type memoryState struct {
	seq           uint
	profiles      map[uint]models.Profile
	swipes        map[swipeKey]models.Swipe
	matches       map[uint]models.Match
	matchPairs    map[pairKey]uint
	conversations map[uint]models.Conversation
	convByMatch   map[uint]uint
	messages      map[uint]models.Message
	interests     map[uint]models.Interest
}

func newMemoryState() *memoryState {
	return &memoryState{
		profiles:      make(map[uint]models.Profile),
		swipes:        make(map[swipeKey]models.Swipe),
		matches:       make(map[uint]models.Match),
		matchPairs:    make(map[pairKey]uint),
		conversations: make(map[uint]models.Conversation),
		convByMatch:   make(map[uint]uint),
		messages:      make(map[uint]models.Message),
		interests:     make(map[uint]models.Interest),
	}
}

func (st *memoryState) clone() *memoryState {
	out := &memoryState{
		seq:           st.seq,
		profiles:      make(map[uint]models.Profile, len(st.profiles)),
		swipes:        make(map[swipeKey]models.Swipe, len(st.swipes)),
		matches:       make(map[uint]models.Match, len(st.matches)),
		matchPairs:    make(map[pairKey]uint, len(st.matchPairs)),
		conversations: make(map[uint]models.Conversation, len(st.conversations)),
		convByMatch:   make(map[uint]uint, len(st.convByMatch)),
		messages:      make(map[uint]models.Message, len(st.messages)),
		interests:     make(map[uint]models.Interest, len(st.interests)),
	}
	for k, v := range st.profiles {
		out.profiles[k] = v
	}
	for k, v := range st.swipes {
		out.swipes[k] = v
	}
	for k, v := range st.matches {
		out.matches[k] = v
	}
	for k, v := range st.matchPairs {
		out.matchPairs[k] = v
	}
	for k, v := range st.conversations {
		out.conversations[k] = v
	}
	for k, v := range st.convByMatch {
		out.convByMatch[k] = v
	}
	for k, v := range st.messages {
		out.messages[k] = v
	}
	for k, v := range st.interests {
		out.interests[k] = v
	}
	return out
}

func (st *memoryState) nextID() uint {
	st.seq++
	return st.seq
}

// MemoryStore is a Store kept in process memory. A single mutex serializes
// operations; a failed transaction restores the state it started from.
type MemoryStore struct {
	mu    *sync.Mutex
	state *memoryState
	inTx  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mu: &sync.Mutex{}, state: newMemoryState()}
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) WithTx(_ context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(&MemoryStore{mu: s.mu, state: s.state, inTx: true}); err != nil {
		*s.state = *snapshot
		return err
	}
	return nil
}

func copyProfile(p models.Profile) *models.Profile {
	p.Interests = append([]models.Interest(nil), p.Interests...)
	p.PhotoKeys = append([]string(nil), p.PhotoKeys...)
	return &p
}

func (s *MemoryStore) CreateProfile(_ context.Context, profile *models.Profile) error {
	defer s.lock()()

	for _, existing := range s.state.profiles {
		if existing.UserID == profile.UserID {
			return ErrDuplicate
		}
	}

	now := time.Now()
	profile.ID = s.state.nextID()
	profile.CreatedAt, profile.UpdatedAt = now, now
	for i, interest := range profile.Interests {
		if interest.ID == 0 {
			for _, known := range s.state.interests {
				if known.Name == interest.Name {
					profile.Interests[i] = known
				}
			}
		}
	}
	s.state.profiles[profile.ID] = *copyProfile(*profile)
	return nil
}

func (s *MemoryStore) GetProfile(_ context.Context, id uint) (*models.Profile, error) {
	defer s.lock()()

	profile, ok := s.state.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyProfile(profile), nil
}

func (s *MemoryStore) GetProfileByUserID(_ context.Context, userID uint) (*models.Profile, error) {
	defer s.lock()()

	for _, profile := range s.state.profiles {
		if profile.UserID == userID {
			return copyProfile(profile), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetProfiles(_ context.Context, ids []uint) ([]models.Profile, error) {
	defer s.lock()()

	out := make([]models.Profile, 0, len(ids))
	for _, id := range ids {
		if profile, ok := s.state.profiles[id]; ok {
			out = append(out, *copyProfile(profile))
		}
	}
	return out, nil
}

func (s *MemoryStore) ListActiveProfiles(_ context.Context, gender string) ([]models.Profile, error) {
	defer s.lock()()

	var out []models.Profile
	for _, profile := range s.state.profiles {
		if !profile.IsActive {
			continue
		}
		if gender != "" && gender != models.GenderAny && profile.Gender != gender {
			continue
		}
		out = append(out, *copyProfile(profile))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LockPair is a no-op: the store mutex already serializes transactions.
func (s *MemoryStore) LockPair(context.Context, uint, uint) error {
	return nil
}

func (s *MemoryStore) UpsertSwipe(_ context.Context, swipe *models.Swipe) error {
	defer s.lock()()

	key := swipeKey{swipe.ActorID, swipe.TargetID}
	if existing, ok := s.state.swipes[key]; ok {
		swipe.ID = existing.ID
	} else {
		swipe.ID = s.state.nextID()
	}
	s.state.swipes[key] = *swipe
	return nil
}

func (s *MemoryStore) GetSwipe(_ context.Context, actorID, targetID uint) (*models.Swipe, error) {
	defer s.lock()()

	swipe, ok := s.state.swipes[swipeKey{actorID, targetID}]
	if !ok {
		return nil, ErrNotFound
	}
	return &swipe, nil
}

func (s *MemoryStore) ListSwipesByActor(_ context.Context, actorID uint) ([]models.Swipe, error) {
	defer s.lock()()

	var out []models.Swipe
	for key, swipe := range s.state.swipes {
		if key.actor == actorID {
			out = append(out, swipe)
		}
	}
	return out, nil
}

func (s *MemoryStore) DeleteSwipesBetween(_ context.Context, a, b uint) error {
	defer s.lock()()

	delete(s.state.swipes, swipeKey{a, b})
	delete(s.state.swipes, swipeKey{b, a})
	return nil
}

func (s *MemoryStore) CreateMatchIfAbsent(_ context.Context, match *models.Match) (bool, error) {
	defer s.lock()()

	match.Profile1ID, match.Profile2ID = models.CanonicalPair(match.Profile1ID, match.Profile2ID)
	key := pairKey{match.Profile1ID, match.Profile2ID}
	if _, exists := s.state.matchPairs[key]; exists {
		return false, nil
	}

	match.ID = s.state.nextID()
	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now()
	}
	s.state.matches[match.ID] = *match
	s.state.matchPairs[key] = match.ID
	return true, nil
}

func (s *MemoryStore) GetMatch(_ context.Context, id uint) (*models.Match, error) {
	defer s.lock()()

	match, ok := s.state.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &match, nil
}

func (s *MemoryStore) FindMatch(_ context.Context, a, b uint) (*models.Match, error) {
	defer s.lock()()

	p1, p2 := models.CanonicalPair(a, b)
	id, ok := s.state.matchPairs[pairKey{p1, p2}]
	if !ok {
		return nil, ErrNotFound
	}
	match := s.state.matches[id]
	return &match, nil
}

func (s *MemoryStore) ListMatches(_ context.Context, profileID uint) ([]models.Match, error) {
	defer s.lock()()

	var out []models.Match
	for _, match := range s.state.matches {
		if match.Involves(profileID) {
			out = append(out, match)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) MarkMatchesSeen(_ context.Context, profileID uint) (int64, error) {
	defer s.lock()()

	var changed int64
	for id, match := range s.state.matches {
		switch {
		case match.Profile1ID == profileID && !match.Profile1Seen:
			match.Profile1Seen = true
		case match.Profile2ID == profileID && !match.Profile2Seen:
			match.Profile2Seen = true
		default:
			continue
		}
		s.state.matches[id] = match
		changed++
	}
	return changed, nil
}

func (s *MemoryStore) DeleteMatch(_ context.Context, id uint) error {
	defer s.lock()()

	match, ok := s.state.matches[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.state.matches, id)
	delete(s.state.matchPairs, pairKey{match.Profile1ID, match.Profile2ID})
	return nil
}

func (s *MemoryStore) CreateConversationIfAbsent(_ context.Context, conv *models.Conversation) (*models.Conversation, bool, error) {
	defer s.lock()()

	if id, ok := s.state.convByMatch[conv.MatchID]; ok {
		existing := s.state.conversations[id]
		return &existing, false, nil
	}

	now := time.Now()
	conv.ID = s.state.nextID()
	conv.CreatedAt, conv.UpdatedAt = now, now
	s.state.conversations[conv.ID] = *conv
	s.state.convByMatch[conv.MatchID] = conv.ID
	created := *conv
	return &created, true, nil
}

func (s *MemoryStore) GetConversation(_ context.Context, id uint) (*models.Conversation, error) {
	defer s.lock()()

	conv, ok := s.state.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &conv, nil
}

func (s *MemoryStore) GetConversationByMatch(_ context.Context, matchID uint) (*models.Conversation, error) {
	defer s.lock()()

	id, ok := s.state.convByMatch[matchID]
	if !ok {
		return nil, ErrNotFound
	}
	conv := s.state.conversations[id]
	return &conv, nil
}

func (s *MemoryStore) ListConversations(_ context.Context, profileID uint) ([]models.Conversation, error) {
	defer s.lock()()

	var out []models.Conversation
	for _, conv := range s.state.conversations {
		if conv.HasParticipant(profileID) {
			out = append(out, conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].LastMessageAt, out[j].LastMessageAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateConversationPreview(_ context.Context, id uint, preview string, at time.Time) error {
	defer s.lock()()

	conv, ok := s.state.conversations[id]
	if !ok {
		return ErrNotFound
	}
	conv.LastMessagePreview = &preview
	conv.LastMessageAt = &at
	conv.UpdatedAt = time.Now()
	s.state.conversations[id] = conv
	return nil
}

func (s *MemoryStore) IncrementUnread(_ context.Context, conv *models.Conversation, profileID uint) error {
	return s.adjustUnread(conv.ID, profileID, func(n int) int { return n + 1 })
}

func (s *MemoryStore) ResetUnread(_ context.Context, conv *models.Conversation, profileID uint) error {
	return s.adjustUnread(conv.ID, profileID, func(int) int { return 0 })
}

func (s *MemoryStore) adjustUnread(id, profileID uint, fn func(int) int) error {
	defer s.lock()()

	conv, ok := s.state.conversations[id]
	if !ok {
		return ErrNotFound
	}
	if conv.Participant1ID == profileID {
		conv.UnreadCount1 = fn(conv.UnreadCount1)
	} else {
		conv.UnreadCount2 = fn(conv.UnreadCount2)
	}
	s.state.conversations[id] = conv
	return nil
}

func (s *MemoryStore) DeleteConversationByMatch(_ context.Context, matchID uint) error {
	defer s.lock()()

	id, ok := s.state.convByMatch[matchID]
	if !ok {
		return nil
	}
	for msgID, msg := range s.state.messages {
		if msg.ConversationID == id {
			delete(s.state.messages, msgID)
		}
	}
	delete(s.state.conversations, id)
	delete(s.state.convByMatch, matchID)
	return nil
}

func (s *MemoryStore) CreateMessage(_ context.Context, msg *models.Message) error {
	defer s.lock()()

	if _, ok := s.state.conversations[msg.ConversationID]; !ok {
		return ErrNotFound
	}
	msg.ID = s.state.nextID()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	s.state.messages[msg.ID] = *msg
	return nil
}

func (s *MemoryStore) ListMessagesBefore(_ context.Context, conversationID uint, before *time.Time, limit int) ([]models.Message, error) {
	defer s.lock()()

	var out []models.Message
	for _, msg := range s.state.messages {
		if msg.ConversationID != conversationID {
			continue
		}
		if before != nil && !msg.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) MarkMessagesRead(_ context.Context, conversationID, readerID uint, at time.Time) (int64, error) {
	defer s.lock()()

	var marked int64
	for id, msg := range s.state.messages {
		if msg.ConversationID != conversationID || msg.SenderID == readerID || msg.ReadAt != nil {
			continue
		}
		readAt := at
		msg.ReadAt = &readAt
		s.state.messages[id] = msg
		marked++
	}
	return marked, nil
}

func (s *MemoryStore) CountUnread(_ context.Context, conversationID, readerID uint) (int64, error) {
	defer s.lock()()

	var count int64
	for _, msg := range s.state.messages {
		if msg.ConversationID == conversationID && msg.SenderID != readerID && msg.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ListInterests(_ context.Context) ([]models.Interest, error) {
	defer s.lock()()

	out := make([]models.Interest, 0, len(s.state.interests))
	for _, interest := range s.state.interests {
		out = append(out, interest)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) CountInterests(_ context.Context) (int64, error) {
	defer s.lock()()
	return int64(len(s.state.interests)), nil
}

func (s *MemoryStore) CreateInterest(_ context.Context, interest *models.Interest) error {
	defer s.lock()()

	for _, existing := range s.state.interests {
		if existing.Name == interest.Name {
			return ErrDuplicate
		}
	}

	now := time.Now()
	interest.ID = s.state.nextID()
	interest.CreatedAt, interest.UpdatedAt = now, now
	s.state.interests[interest.ID] = *interest
	return nil
}
