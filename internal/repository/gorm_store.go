package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-dating-app/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (s *GormStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	return translate(s.conn(ctx).Create(profile).Error)
}

func (s *GormStore) GetProfile(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := s.conn(ctx).Preload("Interests").First(&profile, id).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (s *GormStore) GetProfileByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := s.conn(ctx).Preload("Interests").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (s *GormStore) GetProfiles(ctx context.Context, ids []uint) ([]models.Profile, error) {
	var profiles []models.Profile
	if len(ids) == 0 {
		return profiles, nil
	}
	err := s.conn(ctx).Preload("Interests").Where("id IN ?", ids).Find(&profiles).Error
	return profiles, translate(err)
}

func (s *GormStore) ListActiveProfiles(ctx context.Context, gender string) ([]models.Profile, error) {
	query := s.conn(ctx).Preload("Interests").Where("is_active = ?", true)
	if gender != "" && gender != models.GenderAny {
		query = query.Where("gender = ?", gender)
	}

	var profiles []models.Profile
	err := query.Order("id ASC").Find(&profiles).Error
	return profiles, translate(err)
}

func (s *GormStore) LockPair(ctx context.Context, a, b uint) error {
	if !s.inTx {
		return nil
	}
	p1, p2 := models.CanonicalPair(a, b)

	var locked []models.Profile
	err := s.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").Where("id IN ?", []uint{p1, p2}).Order("id ASC").
		Find(&locked).Error
	return translate(err)
}

func (s *GormStore) UpsertSwipe(ctx context.Context, swipe *models.Swipe) error {
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"action", "swiped_at"}),
	}).Create(swipe).Error
	return translate(err)
}

func (s *GormStore) GetSwipe(ctx context.Context, actorID, targetID uint) (*models.Swipe, error) {
	var swipe models.Swipe
	err := s.conn(ctx).Where("actor_id = ? AND target_id = ?", actorID, targetID).First(&swipe).Error
	if err != nil {
		return nil, translate(err)
	}
	return &swipe, nil
}

func (s *GormStore) ListSwipesByActor(ctx context.Context, actorID uint) ([]models.Swipe, error) {
	var swipes []models.Swipe
	err := s.conn(ctx).Where("actor_id = ?", actorID).Find(&swipes).Error
	return swipes, translate(err)
}

func (s *GormStore) DeleteSwipesBetween(ctx context.Context, a, b uint) error {
	err := s.conn(ctx).
		Where("(actor_id = ? AND target_id = ?) OR (actor_id = ? AND target_id = ?)", a, b, b, a).
		Delete(&models.Swipe{}).Error
	return translate(err)
}

func (s *GormStore) CreateMatchIfAbsent(ctx context.Context, match *models.Match) (bool, error) {
	match.Profile1ID, match.Profile2ID = models.CanonicalPair(match.Profile1ID, match.Profile2ID)

	result := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile1_id"}, {Name: "profile2_id"}},
		DoNothing: true,
	}).Create(match)
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *GormStore) GetMatch(ctx context.Context, id uint) (*models.Match, error) {
	var match models.Match
	if err := s.conn(ctx).First(&match, id).Error; err != nil {
		return nil, translate(err)
	}
	return &match, nil
}

func (s *GormStore) FindMatch(ctx context.Context, a, b uint) (*models.Match, error) {
	p1, p2 := models.CanonicalPair(a, b)

	var match models.Match
	err := s.conn(ctx).Where("profile1_id = ? AND profile2_id = ?", p1, p2).First(&match).Error
	if err != nil {
		return nil, translate(err)
	}
	return &match, nil
}

func (s *GormStore) ListMatches(ctx context.Context, profileID uint) ([]models.Match, error) {
	var matches []models.Match
	err := s.conn(ctx).
		Where("profile1_id = ? OR profile2_id = ?", profileID, profileID).
		Order("created_at DESC").Order("id DESC").
		Find(&matches).Error
	return matches, translate(err)
}

func (s *GormStore) MarkMatchesSeen(ctx context.Context, profileID uint) (int64, error) {
	first := s.conn(ctx).Model(&models.Match{}).
		Where("profile1_id = ? AND profile1_seen = ?", profileID, false).
		Update("profile1_seen", true)
	if first.Error != nil {
		return 0, translate(first.Error)
	}

	second := s.conn(ctx).Model(&models.Match{}).
		Where("profile2_id = ? AND profile2_seen = ?", profileID, false).
		Update("profile2_seen", true)
	if second.Error != nil {
		return 0, translate(second.Error)
	}
	return first.RowsAffected + second.RowsAffected, nil
}

func (s *GormStore) DeleteMatch(ctx context.Context, id uint) error {
	result := s.conn(ctx).Delete(&models.Match{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateConversationIfAbsent(ctx context.Context, conv *models.Conversation) (*models.Conversation, bool, error) {
	result := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "match_id"}},
		DoNothing: true,
	}).Create(conv)
	if result.Error != nil {
		return nil, false, translate(result.Error)
	}
	if result.RowsAffected == 1 {
		return conv, true, nil
	}

	existing, err := s.GetConversationByMatch(ctx, conv.MatchID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetConversation takes a row lock when called inside a transaction so that
// counter updates of concurrent operations serialize.
func (s *GormStore) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	query := s.conn(ctx)
	if s.inTx {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var conv models.Conversation
	if err := query.First(&conv, id).Error; err != nil {
		return nil, translate(err)
	}
	return &conv, nil
}

func (s *GormStore) GetConversationByMatch(ctx context.Context, matchID uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.conn(ctx).Where("match_id = ?", matchID).First(&conv).Error; err != nil {
		return nil, translate(err)
	}
	return &conv, nil
}

func (s *GormStore) ListConversations(ctx context.Context, profileID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.conn(ctx).
		Where("participant1_id = ? OR participant2_id = ?", profileID, profileID).
		Order("last_message_at DESC NULLS LAST").Order("created_at DESC").
		Find(&convs).Error
	return convs, translate(err)
}

func (s *GormStore) UpdateConversationPreview(ctx context.Context, id uint, preview string, at time.Time) error {
	err := s.conn(ctx).Model(&models.Conversation{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message_preview": preview,
			"last_message_at":      at,
		}).Error
	return translate(err)
}

func (s *GormStore) IncrementUnread(ctx context.Context, conv *models.Conversation, profileID uint) error {
	column := conv.UnreadColumn(profileID)
	err := s.conn(ctx).Model(&models.Conversation{}).Where("id = ?", conv.ID).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error
	return translate(err)
}

func (s *GormStore) ResetUnread(ctx context.Context, conv *models.Conversation, profileID uint) error {
	err := s.conn(ctx).Model(&models.Conversation{}).Where("id = ?", conv.ID).
		UpdateColumn(conv.UnreadColumn(profileID), 0).Error
	return translate(err)
}

func (s *GormStore) DeleteConversationByMatch(ctx context.Context, matchID uint) error {
	conv, err := s.GetConversationByMatch(ctx, matchID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.conn(ctx).Where("conversation_id = ?", conv.ID).Delete(&models.Message{}).Error; err != nil {
		return fmt.Errorf("failed to delete messages: %w", translate(err))
	}
	return translate(s.conn(ctx).Delete(&models.Conversation{}, conv.ID).Error)
}

func (s *GormStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	return translate(s.conn(ctx).Create(msg).Error)
}

func (s *GormStore) ListMessagesBefore(ctx context.Context, conversationID uint, before *time.Time, limit int) ([]models.Message, error) {
	query := s.conn(ctx).Where("conversation_id = ?", conversationID)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	var messages []models.Message
	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&messages).Error
	return messages, translate(err)
}

func (s *GormStore) MarkMessagesRead(ctx context.Context, conversationID, readerID uint, at time.Time) (int64, error) {
	result := s.conn(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, readerID).
		Update("read_at", at)
	return result.RowsAffected, translate(result.Error)
}

func (s *GormStore) CountUnread(ctx context.Context, conversationID, readerID uint) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, readerID).
		Count(&count).Error
	return count, translate(err)
}

func (s *GormStore) ListInterests(ctx context.Context) ([]models.Interest, error) {
	var interests []models.Interest
	err := s.conn(ctx).Order("name ASC").Find(&interests).Error
	return interests, translate(err)
}

func (s *GormStore) CountInterests(ctx context.Context) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Interest{}).Count(&count).Error
	return count, translate(err)
}

func (s *GormStore) CreateInterest(ctx context.Context, interest *models.Interest) error {
	result := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(interest)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}
