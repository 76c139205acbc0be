package models

import "time"

type SwipeAction string

const (
	ActionLike    SwipeAction = "LIKE"
	ActionDislike SwipeAction = "DISLIKE"
)

func (a SwipeAction) Valid() bool {
	return a == ActionLike || a == ActionDislike
}

// Swipe is the latest action from Actor toward Target. There is at most one
// row per ordered pair; repeated swipes overwrite Action and SwipedAt.
type Swipe struct {
	ID       uint        `json:"id" gorm:"primaryKey"`
	ActorID  uint        `json:"actor_id" gorm:"not null;uniqueIndex:idx_swipes_pair"`
	TargetID uint        `json:"target_id" gorm:"not null;uniqueIndex:idx_swipes_pair;index"`
	Action   SwipeAction `json:"action" gorm:"type:varchar(16);not null"`
	SwipedAt time.Time   `json:"swiped_at" gorm:"not null"`
}

// Match is the mutual-like relationship of two profiles. Profile1ID is always
// the smaller id so the unique index covers the unordered pair.
type Match struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Profile1ID   uint      `json:"profile1_id" gorm:"not null;uniqueIndex:idx_matches_pair"`
	Profile2ID   uint      `json:"profile2_id" gorm:"not null;uniqueIndex:idx_matches_pair;index"`
	Profile1Seen bool      `json:"profile1_seen" gorm:"default:false"`
	Profile2Seen bool      `json:"profile2_seen" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewMatch builds an unseen match for the unordered pair {a, b}.
func NewMatch(a, b uint) *Match {
	p1, p2 := CanonicalPair(a, b)
	return &Match{Profile1ID: p1, Profile2ID: p2}
}

// CanonicalPair orders two profile ids as (min, max).
func CanonicalPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

func (m *Match) Involves(profileID uint) bool {
	return m.Profile1ID == profileID || m.Profile2ID == profileID
}

// Partner returns the other side of the match.
func (m *Match) Partner(profileID uint) uint {
	if m.Profile1ID == profileID {
		return m.Profile2ID
	}
	return m.Profile1ID
}

// SeenBy reports whether profileID has acknowledged the match.
func (m *Match) SeenBy(profileID uint) bool {
	if m.Profile1ID == profileID {
		return m.Profile1Seen
	}
	return m.Profile2Seen
}
