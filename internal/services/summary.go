package services

import (
	"context"
	"time"

	"campus-dating-app/internal/models"
)

// ProfileSummary is the public view of a profile shown to other users.
type ProfileSummary struct {
	ID        uint     `json:"id"`
	FullName  string   `json:"full_name"`
	Nickname  string   `json:"nickname,omitempty"`
	Age       int      `json:"age"`
	Gender    string   `json:"gender"`
	Faculty   string   `json:"faculty,omitempty"`
	Program   string   `json:"program,omitempty"`
	Bio       *string  `json:"bio,omitempty"`
	Interests []string `json:"interests"`
	Photos    []string `json:"photos"`
}

// AgeOn returns completed years between birth and now.
func AgeOn(birth, now time.Time) int {
	by, bm, bd := birth.Date()
	ny, nm, nd := now.Date()

	age := ny - by
	if nm < bm || (nm == bm && nd < bd) {
		age--
	}
	return age
}

func (d Deps) summarize(ctx context.Context, profile *models.Profile) ProfileSummary {
	return ProfileSummary{
		ID:        profile.ID,
		FullName:  profile.FullName,
		Nickname:  profile.Nickname,
		Age:       AgeOn(profile.DateOfBirth, d.Now()),
		Gender:    profile.Gender,
		Faculty:   profile.Faculty,
		Program:   profile.Program,
		Bio:       profile.Bio,
		Interests: profile.InterestNames(),
		Photos:    d.resolvePhotos(ctx, profile.PhotoKeys),
	}
}

// profilesByID loads profiles and indexes them.
func (d Deps) profilesByID(ctx context.Context, ids []uint) (map[uint]*models.Profile, error) {
	profiles, err := d.Store.GetProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]*models.Profile, len(profiles))
	for i := range profiles {
		out[profiles[i].ID] = &profiles[i]
	}
	return out, nil
}
