package services

import (
	"context"
	"fmt"

	"campus-dating-app/internal/config"
)

type PresenceService struct {
	Deps
}

func NewPresenceService(deps Deps, _ *config.Config) *PresenceService {
	return &PresenceService{Deps: deps.withDefaults()}
}

// Heartbeat marks the caller as seen now.
func (s *PresenceService) Heartbeat(ctx context.Context, userID uint) error {
	caller, err := s.resolveCaller(ctx, userID)
	if err != nil {
		return err
	}
	return s.HeartbeatProfile(ctx, caller.ID)
}

// HeartbeatProfile is Heartbeat for an already resolved profile, used by
// long-lived websocket connections.
func (s *PresenceService) HeartbeatProfile(ctx context.Context, profileID uint) error {
	if err := s.Presence.Heartbeat(ctx, profileID); err != nil {
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}
	return nil
}

func (s *PresenceService) IsOnline(ctx context.Context, userID, profileID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	return s.Presence.IsOnline(ctx, profileID)
}

func (s *PresenceService) Online(ctx context.Context, userID uint, profileIDs []uint) (map[uint]bool, error) {
	if userID == 0 {
		return map[uint]bool{}, nil
	}
	return s.Presence.Online(ctx, profileIDs)
}

// ProfileForUser resolves the caller's profile id.
func (s *PresenceService) ProfileForUser(ctx context.Context, userID uint) (uint, error) {
	caller, err := s.resolveCaller(ctx, userID)
	if err != nil {
		return 0, err
	}
	return caller.ID, nil
}
