package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"free-games-bot/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedger is the relational LedgerStore: users, claimed_games and
// achievements tables, with the per-user uniqueness rules enforced by
// composite unique indexes.
type GormLedger struct {
	DB *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{DB: db}
}

// OpenPostgresLedger connects once and migrates the schema.
func OpenPostgresLedger(dsn string) (*GormLedger, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	ledger := NewGormLedger(db)
	if err := ledger.Migrate(); err != nil {
		return nil, err
	}
	return ledger, nil
}

func (s *GormLedger) Migrate() error {
	if err := s.DB.AutoMigrate(
		&models.User{},
		&models.ClaimedGame{},
		&models.Achievement{},
		&models.DigestRun{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// storeErr maps gorm errors onto the ledger taxonomy.
func storeErr(chatID string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnknownUser) || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownUser, chatID)
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

func (s *GormLedger) UpsertUser(ctx context.Context, chatID string, profile models.Profile) (bool, error) {
	user := models.User{
		ChatID:   chatID,
		Profile:  profile,
		JoinedAt: time.Now().UTC(),
	}
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}},
			DoNothing: true,
		}).
		Create(&user)
	if res.Error != nil {
		return false, storeErr(chatID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *GormLedger) GetUser(ctx context.Context, chatID string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).
		Preload("ClaimedList", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Achievements", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("chat_id = ?", chatID).
		First(&user).Error
	if err != nil {
		return nil, storeErr(chatID, err)
	}
	if user.ClaimedList == nil {
		user.ClaimedList = []models.ClaimedGame{}
	}
	if user.Achievements == nil {
		user.Achievements = []models.Achievement{}
	}
	return &user, nil
}

func (s *GormLedger) DeleteUser(ctx context.Context, chatID string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Same row lock as AppendClaim, so a concurrent claim finishes first.
		if err := lockUser(tx, chatID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&models.ClaimedGame{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&models.Achievement{}).Error; err != nil {
			return err
		}
		return tx.Where("chat_id = ?", chatID).Delete(&models.User{}).Error
	})
	return storeErr(chatID, err)
}

// lockUser takes the row lock that serializes read-modify-write on one chat ID.
// SQLite has no row locks; its single writer gives the same guarantee.
func lockUser(tx *gorm.DB, chatID string) error {
	var user models.User
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("chat_id").
		Where("chat_id = ?", chatID).
		First(&user).Error
}

// AppendClaim inserts the claim row and bumps claimed_count in the same transaction.
// The unique index on (chat_id, url) turns a duplicate into a no-op insert.
func (s *GormLedger) AppendClaim(ctx context.Context, chatID string, claim models.ClaimedGame) (ClaimAppend, error) {
	var out ClaimAppend
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, chatID); err != nil {
			return err
		}

		claim.ID = 0
		claim.ChatID = chatID
		if claim.ClaimedAt.IsZero() {
			claim.ClaimedAt = time.Now().UTC()
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&claim)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var existing models.ClaimedGame
			if err := tx.Where("chat_id = ? AND url = ?", chatID, claim.URL).First(&existing).Error; err != nil {
				return fmt.Errorf("%w: claim conflict without existing row: %v", ErrStorageUnavailable, err)
			}
			out = ClaimAppend{Existing: existing}
			return nil
		}

		if err := tx.Model(&models.User{}).
			Where("chat_id = ?", chatID).
			UpdateColumn("claimed_count", gorm.Expr("claimed_count + ?", 1)).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.User{}).
			Select("claimed_count").
			Where("chat_id = ?", chatID).
			Scan(&count).Error; err != nil {
			return err
		}
		out = ClaimAppend{Appended: true, NewCount: count}
		return nil
	})
	if err != nil {
		return ClaimAppend{}, storeErr(chatID, err)
	}
	return out, nil
}

func (s *GormLedger) AddAchievement(ctx context.Context, chatID string, achievement models.Achievement) (bool, error) {
	var added bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, chatID); err != nil {
			return err
		}

		achievement.ID = 0
		achievement.ChatID = chatID
		if achievement.UnlockedAt.IsZero() {
			achievement.UnlockedAt = time.Now().UTC()
		}
		if achievement.Source == "" {
			achievement.Source = models.AchievementSourceMilestone
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&achievement)
		if res.Error != nil {
			return res.Error
		}
		added = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, storeErr(chatID, err)
	}
	return added, nil
}

func (s *GormLedger) ListSubscribers(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.DB.WithContext(ctx).
		Model(&models.User{}).
		Order("joined_at ASC").
		Pluck("chat_id", &ids).Error; err != nil {
		return nil, storeErr("", err)
	}
	return ids, nil
}

func (s *GormLedger) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return storeErr("", err)
	}
	return storeErr("", sqlDB.PingContext(ctx))
}

func (s *GormLedger) Probe(ctx context.Context) (*StoreProbe, error) {
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	migrator := s.DB.WithContext(ctx).Migrator()
	tables, err := migrator.GetTables()
	if err != nil {
		return nil, storeErr("", err)
	}
	return &StoreProbe{
		Driver:      s.DB.Dialector.Name(),
		Database:    migrator.CurrentDatabase(),
		Collections: tables,
	}, nil
}

func (s *GormLedger) Close(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	log.Println("[LEDGER] Closing database connection")
	return sqlDB.Close()
}

func (s *GormLedger) RecordDigest(ctx context.Context, run *models.DigestRun) error {
	return storeErr("", s.DB.WithContext(ctx).Create(run).Error)
}

// LatestDigest returns nil, nil when no digest has been recorded yet.
func (s *GormLedger) LatestDigest(ctx context.Context) (*models.DigestRun, error) {
	var run models.DigestRun
	err := s.DB.WithContext(ctx).Order("ran_at DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("", err)
	}
	return &run, nil
}
