package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"campus-dating-app/internal/config"
	"campus-dating-app/internal/events"
	"campus-dating-app/internal/metrics"
	"campus-dating-app/internal/models"
	"campus-dating-app/internal/repository"

	"github.com/sirupsen/logrus"
)

const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortName   = "name"
)

type MatchSummary struct {
	ID             uint           `json:"id"`
	Partner        ProfileSummary `json:"partner"`
	IsNew          bool           `json:"is_new"`
	ConversationID *uint          `json:"conversation_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

type SwipeResult struct {
	Success bool          `json:"success"`
	Match   *MatchSummary `json:"match,omitempty"`
}

type MatchService struct {
	Deps
}

func NewMatchService(deps Deps, _ *config.Config) *MatchService {
	return &MatchService{Deps: deps.withDefaults()}
}

// Swipe records the caller's action toward target. A LIKE answering an
// earlier LIKE from target creates the match, exactly once per pair.
func (s *MatchService) Swipe(ctx context.Context, userID, targetID uint, action models.SwipeAction) (*SwipeResult, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: unknown swipe action %q", ErrInvalidInput, action)
	}

	actor, err := s.resolveCaller(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actor.ID == targetID {
		return nil, ErrSelfSwipe
	}

	var (
		match  *models.Match
		target *models.Profile
	)
	err = s.Store.WithTx(ctx, func(tx repository.Store) error {
		target, err = tx.GetProfile(ctx, targetID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !target.IsActive) {
			return fmt.Errorf("%w: profile %d", ErrNotFound, targetID)
		}
		if err != nil {
			return err
		}

		if err := tx.LockPair(ctx, actor.ID, targetID); err != nil {
			return err
		}

		if err := tx.UpsertSwipe(ctx, &models.Swipe{
			ActorID:  actor.ID,
			TargetID: targetID,
			Action:   action,
			SwipedAt: s.Now(),
		}); err != nil {
			return fmt.Errorf("failed to record swipe: %w", err)
		}

		if action != models.ActionLike {
			return nil
		}

		reverse, err := tx.GetSwipe(ctx, targetID, actor.ID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && reverse.Action != models.ActionLike) {
			return nil
		}
		if err != nil {
			return err
		}

		candidate := models.NewMatch(actor.ID, targetID)
		candidate.CreatedAt = s.Now()
		created, err := tx.CreateMatchIfAbsent(ctx, candidate)
		if err != nil {
			return fmt.Errorf("failed to create match: %w", err)
		}
		if created {
			match = candidate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SwipesTotal.WithLabelValues(string(action)).Inc()
	result := &SwipeResult{Success: true}
	if match == nil {
		return result, nil
	}

	metrics.MatchesCreated.Inc()
	s.Log.WithFields(logrus.Fields{
		"match_id": match.ID,
		"profile1": match.Profile1ID,
		"profile2": match.Profile2ID,
	}).Info("Match created")

	result.Match = &MatchSummary{
		ID:        match.ID,
		Partner:   s.summarize(ctx, target),
		IsNew:     true,
		CreatedAt: match.CreatedAt,
	}
	s.Notifier.Notify([]uint{match.Profile1ID, match.Profile2ID}, "match", matchPayload(match))
	s.publish(ctx, events.MatchCreated, matchKey(match.ID), matchPayload(match))
	return result, nil
}

// Matches lists the caller's matches with partner summaries. sortBy is one of
// newest (default), oldest or name.
func (s *MatchService) Matches(ctx context.Context, userID uint, sortBy string) ([]MatchSummary, error) {
	caller, ok, err := s.readableCaller(ctx, userID)
	if err != nil || !ok {
		return []MatchSummary{}, err
	}

	matches, err := s.Store.ListMatches(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}

	partnerIDs := make([]uint, 0, len(matches))
	for i := range matches {
		partnerIDs = append(partnerIDs, matches[i].Partner(caller.ID))
	}
	partners, err := s.profilesByID(ctx, partnerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load partners: %w", err)
	}

	convs, err := s.Store.ListConversations(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	convByMatch := make(map[uint]uint, len(convs))
	for _, conv := range convs {
		convByMatch[conv.MatchID] = conv.ID
	}

	summaries := make([]MatchSummary, 0, len(matches))
	for i := range matches {
		match := &matches[i]
		partner, ok := partners[match.Partner(caller.ID)]
		if !ok {
			continue
		}
		summary := MatchSummary{
			ID:        match.ID,
			Partner:   s.summarize(ctx, partner),
			IsNew:     !match.SeenBy(caller.ID),
			CreatedAt: match.CreatedAt,
		}
		if convID, ok := convByMatch[match.ID]; ok {
			summary.ConversationID = &convID
		}
		summaries = append(summaries, summary)
	}

	sortMatches(summaries, sortBy)
	return summaries, nil
}

func sortMatches(summaries []MatchSummary, sortBy string) {
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		switch sortBy {
		case SortOldest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		case SortName:
			an, bn := strings.ToLower(a.Partner.FullName), strings.ToLower(b.Partner.FullName)
			if an != bn {
				return an < bn
			}
			return a.ID < b.ID
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		}
	})
}

// MarkMatchesSeen acknowledges every match on the caller's side.
func (s *MatchService) MarkMatchesSeen(ctx context.Context, userID uint) error {
	caller, err := s.resolveCaller(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.Store.MarkMatchesSeen(ctx, caller.ID); err != nil {
		return fmt.Errorf("failed to mark matches seen: %w", err)
	}
	return nil
}

// Unmatch removes the match, both swipes between the pair, and the match's
// conversation with its messages. The pair can rediscover each other.
func (s *MatchService) Unmatch(ctx context.Context, userID, matchID uint) error {
	caller, err := s.resolveCaller(ctx, userID)
	if err != nil {
		return err
	}

	var match *models.Match
	err = s.Store.WithTx(ctx, func(tx repository.Store) error {
		match, err = tx.GetMatch(ctx, matchID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: match %d", ErrNotFound, matchID)
		}
		if err != nil {
			return err
		}
		if !match.Involves(caller.ID) {
			return ErrNotParticipant
		}

		if err := tx.DeleteSwipesBetween(ctx, match.Profile1ID, match.Profile2ID); err != nil {
			return fmt.Errorf("failed to delete swipes: %w", err)
		}
		if err := tx.DeleteConversationByMatch(ctx, match.ID); err != nil {
			return fmt.Errorf("failed to delete conversation: %w", err)
		}
		if err := tx.DeleteMatch(ctx, match.ID); err != nil {
			return fmt.Errorf("failed to delete match: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.Unmatches.Inc()
	s.Log.WithFields(logrus.Fields{"match_id": match.ID, "by": caller.ID}).Info("Match removed")
	s.Notifier.Notify([]uint{match.Partner(caller.ID)}, "unmatch", map[string]interface{}{"match_id": match.ID})
	s.publish(ctx, events.MatchRemoved, matchKey(match.ID), matchPayload(match))
	return nil
}

func matchKey(id uint) string {
	return "match:" + strconv.FormatUint(uint64(id), 10)
}

func matchPayload(match *models.Match) map[string]interface{} {
	return map[string]interface{}{
		"match_id":    match.ID,
		"profile_ids": []uint{match.Profile1ID, match.Profile2ID},
		"created_at":  match.CreatedAt,
	}
}
