package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"campus-dating-app/internal/config"
	"campus-dating-app/internal/models"
)

const (
	baseScore        = 40.0
	interestWeight   = 60.0
	sameFacultyBonus = 10.0
	sameProgramBonus = 5.0
)

// Candidate is a ranked discovery feed entry.
type Candidate struct {
	ProfileSummary
	Score int `json:"score"`
}

type DiscoveryService struct {
	Deps
	defaultLimit  int
	maxLimit      int
	refreshWindow time.Duration
	minAge        int
	maxAge        int
}

func NewDiscoveryService(deps Deps, cfg *config.Config) *DiscoveryService {
	return &DiscoveryService{
		Deps:          deps.withDefaults(),
		defaultLimit:  cfg.FeedDefaultLimit,
		maxLimit:      cfg.FeedMaxLimit,
		refreshWindow: cfg.DislikeRefreshWindow,
		minAge:        cfg.DefaultMinAge,
		maxAge:        cfg.DefaultMaxAge,
	}
}

// Explore returns the caller's ranked feed. Anonymous callers and callers
// without a profile get an empty feed.
func (s *DiscoveryService) Explore(ctx context.Context, userID uint, limit int) ([]Candidate, error) {
	requester, ok, err := s.readableCaller(ctx, userID)
	if err != nil || !ok {
		return []Candidate{}, err
	}

	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	excluded, err := s.exclusions(ctx, requester.ID)
	if err != nil {
		return nil, err
	}

	pool, err := s.Store.ListActiveProfiles(ctx, requester.PreferredGender)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	minAge, maxAge := requester.MinAge, requester.MaxAge
	if minAge <= 0 {
		minAge = s.minAge
	}
	if maxAge <= 0 {
		maxAge = s.maxAge
	}

	now := s.Now()
	type scored struct {
		profile *models.Profile
		score   int
	}
	var ranked []scored
	for i := range pool {
		candidate := &pool[i]
		if _, skip := excluded[candidate.ID]; skip {
			continue
		}
		age := AgeOn(candidate.DateOfBirth, now)
		if age < minAge || age > maxAge {
			continue
		}
		ranked = append(ranked, scored{profile: candidate, score: Score(requester, candidate)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].profile.ID < ranked[j].profile.ID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	feed := make([]Candidate, 0, len(ranked))
	for _, entry := range ranked {
		feed = append(feed, Candidate{
			ProfileSummary: s.summarize(ctx, entry.profile),
			Score:          entry.score,
		})
	}
	return feed, nil
}

// exclusions returns the requester, everyone they liked, and everyone they
// disliked within the refresh window.
func (s *DiscoveryService) exclusions(ctx context.Context, requesterID uint) (map[uint]struct{}, error) {
	swipes, err := s.Store.ListSwipesByActor(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load swipes: %w", err)
	}

	cutoff := s.Now().Add(-s.refreshWindow)
	excluded := map[uint]struct{}{requesterID: {}}
	for _, swipe := range swipes {
		switch swipe.Action {
		case models.ActionLike:
			excluded[swipe.TargetID] = struct{}{}
		case models.ActionDislike:
			if swipe.SwipedAt.After(cutoff) {
				excluded[swipe.TargetID] = struct{}{}
			}
		}
	}
	return excluded, nil
}

// Jaccard is |a ∩ b| / |a ∪ b|, or 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for name := range a {
		if _, ok := b[name]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Score rates how well candidate fits requester on a 0-100 scale.
func Score(requester, candidate *models.Profile) int {
	score := baseScore + interestWeight*Jaccard(requester.InterestSet(), candidate.InterestSet())

	if sameField(requester.Faculty, candidate.Faculty) {
		score += sameFacultyBonus
		if sameField(requester.Program, candidate.Program) {
			score += sameProgramBonus
		}
	}

	return int(math.Round(math.Max(0, math.Min(100, score))))
}

func sameField(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}
