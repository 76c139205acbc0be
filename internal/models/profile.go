package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
	GenderAny    = "any"
)

// Profile is the dating identity of an authenticated user. Profiles are
// deactivated with IsActive rather than deleted. IsActive carries no column
// default so a false value is written on insert.
type Profile struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	UserID          uint           `json:"user_id" gorm:"uniqueIndex;not null"`
	FullName        string         `json:"full_name" gorm:"not null"`
	Nickname        string         `json:"nickname"`
	DateOfBirth     time.Time      `json:"date_of_birth" gorm:"not null"`
	Gender          string         `json:"gender" gorm:"not null"` // male, female, other
	Faculty         string         `json:"faculty"`
	Program         string         `json:"program"`
	Bio             *string        `json:"bio,omitempty"`
	PhotoKeys       pq.StringArray `json:"photo_keys" gorm:"type:text[]"`
	Interests       []Interest     `json:"interests,omitempty" gorm:"many2many:profile_interests;"`
	IsActive        bool           `json:"is_active" gorm:"not null;index"`
	MinAge          int            `json:"min_age" gorm:"default:18"`
	MaxAge          int            `json:"max_age" gorm:"default:30"`
	PreferredGender string         `json:"preferred_gender" gorm:"default:any"` // male, female, other, any
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

// InterestNames returns the names of the profile's interests in catalog order.
func (p *Profile) InterestNames() []string {
	names := make([]string, 0, len(p.Interests))
	for _, interest := range p.Interests {
		names = append(names, interest.Name)
	}
	return names
}

// InterestSet returns the profile's interest names as a set. Names are
// unique in the catalog.
func (p *Profile) InterestSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Interests))
	for _, interest := range p.Interests {
		set[interest.Name] = struct{}{}
	}
	return set
}

type Interest struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	Icon      *string   `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProfileInterest struct {
	ProfileID  uint `json:"profile_id" gorm:"primaryKey"`
	InterestID uint `json:"interest_id" gorm:"primaryKey"`
}
