/**
 * @description
 * Postgres-backed client state, for deployments that want sessions to
 * survive a Redis flush.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/jackc/pgx/v5/pgconn (error codes)
 */

package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClientState is one string-keyed value of a session
type ClientState struct {
	SessionID string    `gorm:"primaryKey;size:64"`
	Key       string    `gorm:"primaryKey;size:32"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ClientState) TableName() string {
	return "client_state"
}

// ClientFavorite is one favorited market id of a session
type ClientFavorite struct {
	ID        uint      `gorm:"primaryKey"`
	SessionID string    `gorm:"size:64;not null;uniqueIndex:idx_client_favorite"`
	MarketID  string    `gorm:"size:128;not null;uniqueIndex:idx_client_favorite"`
	CreatedAt time.Time `json:"created_at"`
}

func (ClientFavorite) TableName() string {
	return "client_favorites"
}

// PostgresStore implements Store on top of gorm
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore migrates the state tables and returns the store
func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&ClientState{}, &ClientFavorite{}); err != nil {
		return nil, fmt.Errorf("postgres: migrate client state: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, sid, key string) (string, error) {
	var row ClientState
	err := s.db.WithContext(ctx).Where("session_id = ? AND key = ?", sid, key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("postgres: get %s: %w", key, err)
	}
	return row.Value, nil
}

func (s *PostgresStore) Set(ctx context.Context, sid, key, value string) error {
	row := ClientState{SessionID: sid, Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("postgres: set %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, sid string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Where("session_id = ? AND key IN ?", sid, keys).Delete(&ClientState{}).Error
	if err != nil {
		return fmt.Errorf("postgres: delete session keys: %w", err)
	}
	return nil
}

func (s *PostgresStore) Favorites(ctx context.Context, sid string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&ClientFavorite{}).
		Where("session_id = ?", sid).
		Order("created_at DESC").
		Pluck("market_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: read favorites: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) AddFavorite(ctx context.Context, sid, marketID string) error {
	fav := ClientFavorite{SessionID: sid, MarketID: marketID}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error
	if err != nil {
		return fmt.Errorf("postgres: add favorite %s: %w", marketID, err)
	}
	return nil
}

func (s *PostgresStore) RemoveFavorite(ctx context.Context, sid, marketID string) error {
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND market_id = ?", sid, marketID).
		Delete(&ClientFavorite{}).Error
	if err != nil {
		return fmt.Errorf("postgres: remove favorite %s: %w", marketID, err)
	}
	return nil
}

// ReplaceFavorites swaps the whole set in one transaction, retrying on deadlock or
// serialization failure since concurrent tabs of one session can race here.
func (s *PostgresStore) ReplaceFavorites(ctx context.Context, sid string, marketIDs []string) error {
	const maxRetries = 5
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// one replace per session at a time, so the delete sees the previous insert
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", sid).Error; err != nil {
				return err
			}
			if err := tx.Where("session_id = ?", sid).Delete(&ClientFavorite{}).Error; err != nil {
				return err
			}
			if len(marketIDs) == 0 {
				return nil
			}
			rows := make([]ClientFavorite, 0, len(marketIDs))
			for _, id := range marketIDs {
				rows = append(rows, ClientFavorite{SessionID: sid, MarketID: id})
			}
			return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 100).Error
		})
		if err == nil || !isRetryable(err) {
			break
		}
		backoff := time.Duration(attempt*50+rand.Intn(50)) * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	if err != nil {
		return fmt.Errorf("postgres: replace favorites: %w", err)
	}
	return nil
}

func (s *PostgresStore) ClearFavorites(ctx context.Context, sid string) error {
	if err := s.db.WithContext(ctx).Where("session_id = ?", sid).Delete(&ClientFavorite{}).Error; err != nil {
		return fmt.Errorf("postgres: clear favorites: %w", err)
	}
	return nil
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40P01" || pgErr.Code == "40001"
	}
	return false
}
