package dispatchnotifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"hotsheet-workers/internal/common/logger"
	"hotsheet-workers/internal/models"
)

// Store covers the dispatcher's persistence: the notification ledger and
// recipient email resolution. Agent emails are cached in Redis since the
// same agent's sheets fire on every matching listing.
type Store struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewStore(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *Store {
	return &Store{db: db, redis: rdb, cacheTTL: cacheTTL, logger: log}
}

// AlreadyNotified reports whether a ledger row exists for the pair.
func (s *Store) AlreadyNotified(ctx context.Context, hotSheetID, listingID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM hot_sheet_notifications WHERE hot_sheet_id = $1 AND listing_id = $2)`,
		hotSheetID, listingID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check notification ledger: %w", err)
	}
	return exists, nil
}

// RecordNotification writes one ledger row. Called only after the email
// job for this cycle has been enqueued.
func (s *Store) RecordNotification(ctx context.Context, rec models.NotificationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO hot_sheet_notifications (id, hot_sheet_id, listing_id, user_id, sent_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (hot_sheet_id, listing_id) DO NOTHING`,
		rec.ID, rec.HotSheetID, rec.ListingID, rec.UserID, rec.SentAt)
	if err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	return nil
}

func agentEmailKey(agentID string) string {
	return "agent:email:" + agentID
}

// AgentEmail resolves an agent's profile email, Redis cache first. A cache
// transport error falls through to the database.
func (s *Store) AgentEmail(ctx context.Context, agentID string) (string, error) {
	if cached, err := s.redis.Get(ctx, agentEmailKey(agentID)).Result(); err == nil && cached != "" {
		return cached, nil
	} else if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn("agent email cache read failed", map[string]interface{}{
			"agentId": agentID,
			"error":   err.Error(),
		})
	}

	var email string
	err := s.db.QueryRowContext(ctx,
		`SELECT email FROM agents WHERE id = $1`, agentID).Scan(&email)
	if err != nil {
		return "", fmt.Errorf("look up agent %s: %w", agentID, err)
	}

	if err := s.redis.Set(ctx, agentEmailKey(agentID), email, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("agent email cache write failed", map[string]interface{}{
			"agentId": agentID,
			"error":   err.Error(),
		})
	}
	return email, nil
}

// ClientContact resolves the email and display name for a client tied to a
// hot sheet.
func (s *Store) ClientContact(ctx context.Context, clientID string) (email, name string, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT email, name FROM clients WHERE id = $1`, clientID).Scan(&email, &name)
	if err != nil {
		return "", "", fmt.Errorf("look up client %s: %w", clientID, err)
	}
	return email, name, nil
}
