package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campus-dating-app/internal/config"
	"campus-dating-app/internal/models"
	"campus-dating-app/internal/repository"

	"github.com/go-playground/validator/v10"
)

// DefaultInterests is the catalog installed by Seed.
var DefaultInterests = []string{
	"Music", "Movies", "Sports", "Fitness", "Travel", "Photography", "Cooking",
	"Reading", "Gaming", "Dancing", "Art", "Technology", "Nature", "Fashion",
	"Food", "Coffee", "Adventure", "Yoga", "Meditation", "Volunteering",
	"Science", "History", "Languages", "Culture", "Hiking", "Board Games",
	"Anime", "Theatre", "Programming", "Entrepreneurship",
}

type CreateInterestInput struct {
	Name string  `validate:"required,min=1,max=50"`
	Icon *string `validate:"omitempty,max=64"`
}

type InterestService struct {
	Deps
	validate *validator.Validate
}

func NewInterestService(deps Deps, _ *config.Config) *InterestService {
	return &InterestService{Deps: deps.withDefaults(), validate: validator.New()}
}

func (s *InterestService) GetAll(ctx context.Context) ([]models.Interest, error) {
	interests, err := s.Store.ListInterests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load interests: %w", err)
	}
	if interests == nil {
		interests = []models.Interest{}
	}
	return interests, nil
}

// Create adds a catalog entry. Names are trimmed and must be unique.
func (s *InterestService) Create(ctx context.Context, name string, icon *string) (*models.Interest, error) {
	input := CreateInterestInput{Name: strings.TrimSpace(name), Icon: icon}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	interest := &models.Interest{Name: input.Name, Icon: input.Icon}
	if err := s.Store.CreateInterest(ctx, interest); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateInterest, input.Name)
		}
		return nil, fmt.Errorf("failed to create interest: %w", err)
	}
	return interest, nil
}

// Seed installs DefaultInterests into an empty catalog. It reports how many
// entries were inserted; a populated catalog is left untouched.
func (s *InterestService) Seed(ctx context.Context) (int, error) {
	inserted := 0
	err := s.Store.WithTx(ctx, func(tx repository.Store) error {
		count, err := tx.CountInterests(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, name := range DefaultInterests {
			if err := tx.CreateInterest(ctx, &models.Interest{Name: name}); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					continue
				}
				return fmt.Errorf("failed to seed interest %s: %w", name, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if inserted > 0 {
		s.Log.WithField("count", inserted).Info("Interests seeded successfully")
	}
	return inserted, nil
}
