// Package services implements the matching and messaging engine: candidate
// scoring, the swipe/match state machine, conversations and messages,
// presence and the interest catalog.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-dating-app/internal/codec"
	"campus-dating-app/internal/events"
	"campus-dating-app/internal/models"
	"campus-dating-app/internal/presence"
	"campus-dating-app/internal/repository"

	"github.com/sirupsen/logrus"
)

// Notifier pushes realtime events to connected profiles.
type Notifier interface {
	Notify(profileIDs []uint, eventType string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) Notify([]uint, string, interface{}) {}

// Deps are the collaborators shared by every service.
type Deps struct {
	Store    repository.Store
	Codec    *codec.Codec
	Presence *presence.Tracker
	Photos   PhotoResolver
	Notifier Notifier
	Events   events.Publisher
	Log      logrus.FieldLogger
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Photos == nil {
		d.Photos = PassthroughPhotoResolver{}
	}
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.Events == nil {
		d.Events = events.NewLogPublisher(d.Log)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// resolveCaller maps an authenticated user id to its profile. userID zero
// means the caller is anonymous.
func (d Deps) resolveCaller(ctx context.Context, userID uint) (*models.Profile, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	profile, err := d.Store.GetProfileByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load caller profile: %w", err)
	}
	return profile, nil
}

// readableCaller is resolveCaller for read operations, which degrade to empty
// results instead of failing when there is no usable caller.
func (d Deps) readableCaller(ctx context.Context, userID uint) (*models.Profile, bool, error) {
	profile, err := d.resolveCaller(ctx, userID)
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrProfileNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return profile, true, nil
}

func (d Deps) publish(ctx context.Context, eventType, key string, data interface{}) {
	err := d.Events.Publish(ctx, events.Event{
		Type:       eventType,
		Key:        key,
		OccurredAt: d.Now(),
		Data:       data,
	})
	if err != nil {
		d.Log.WithError(err).WithField("event", eventType).Warn("Failed to publish event")
	}
}
