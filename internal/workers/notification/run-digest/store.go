package rundigest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"hotsheet-workers/internal/common/logger"
	"hotsheet-workers/internal/common/validation"
	"hotsheet-workers/internal/models"
)

type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{db: db, logger: log}
}

const digestSheetsQuery = `SELECT id, agent_id, COALESCE(client_id, ''), name, criteria,
	schedule, is_active, last_run_at, created_at, updated_at
	FROM hot_sheets WHERE is_active = TRUE AND schedule = $1
	ORDER BY id`

// DigestHotSheets loads the active sheets on one digest schedule, in a
// stable order so serial runs are reproducible.
func (s *Store) DigestHotSheets(ctx context.Context, schedule models.NotificationSchedule) ([]models.HotSheet, error) {
	rows, err := s.db.QueryContext(ctx, digestSheetsQuery, string(schedule))
	if err != nil {
		return nil, fmt.Errorf("query digest sheets: %w", err)
	}
	defer rows.Close()

	sheets := []models.HotSheet{}
	for rows.Next() {
		var (
			hs        models.HotSheet
			blob      []byte
			lastRunAt sql.NullTime
		)
		if err := rows.Scan(&hs.ID, &hs.AgentID, &hs.ClientID, &hs.Name, &blob,
			&hs.Schedule, &hs.IsActive, &lastRunAt, &hs.CreatedAt, &hs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan digest sheet: %w", err)
		}
		if lastRunAt.Valid {
			t := lastRunAt.Time
			hs.LastRunAt = &t
		}

		if err := validation.ValidateCriteriaBlob(blob); err != nil {
			s.logger.Warn("criteria blob rejected, treating sheet as unconstrained", map[string]interface{}{
				"hotSheetId": hs.ID,
				"error":      err.Error(),
			})
		} else if len(blob) > 0 {
			if err := json.Unmarshal(blob, &hs.Criteria); err != nil {
				s.logger.Warn("criteria blob decode failed, treating sheet as unconstrained", map[string]interface{}{
					"hotSheetId": hs.ID,
					"error":      err.Error(),
				})
				hs.Criteria = models.CriteriaRecord{}
			}
		}
		sheets = append(sheets, hs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate digest sheets: %w", err)
	}
	return sheets, nil
}

const recentListingsQuery = `SELECT id, listing_number, agent_id, address, city, neighborhood,
	state, zip, price, property_type, bedrooms, bathrooms, square_feet, status, listing_type,
	created_at, updated_at
	FROM listings WHERE created_at >= $1 AND status = ANY($2)
	ORDER BY created_at DESC`

// RecentListings loads the public listings created since the window start.
// Matching against sheet criteria happens in memory, per sheet.
func (s *Store) RecentListings(ctx context.Context, since time.Time) ([]models.Listing, error) {
	rows, err := s.db.QueryContext(ctx, recentListingsQuery, since, pq.Array(models.DefaultSearchStatuses))
	if err != nil {
		return nil, fmt.Errorf("query recent listings: %w", err)
	}
	defer rows.Close()

	listings := []models.Listing{}
	for rows.Next() {
		var (
			l            models.Listing
			neighborhood sql.NullString
			bedrooms     sql.NullInt64
			bathrooms    sql.NullFloat64
			squareFeet   sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &l.ListingNumber, &l.AgentID, &l.Address, &l.City, &neighborhood,
			&l.State, &l.Zip, &l.Price, &l.PropertyType, &bedrooms, &bathrooms,
			&squareFeet, &l.Status, &l.ListingType, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan recent listing: %w", err)
		}
		l.Neighborhood = neighborhood.String
		if bedrooms.Valid {
			v := int(bedrooms.Int64)
			l.Bedrooms = &v
		}
		if bathrooms.Valid {
			v := bathrooms.Float64
			l.Bathrooms = &v
		}
		if squareFeet.Valid {
			v := int(squareFeet.Int64)
			l.SquareFeet = &v
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent listings: %w", err)
	}
	return listings, nil
}

// NotifiedListings returns which of the given listing IDs already have a
// ledger row for the sheet, in one round trip.
func (s *Store) NotifiedListings(ctx context.Context, hotSheetID string, listingIDs []string) (map[string]bool, error) {
	notified := map[string]bool{}
	if len(listingIDs) == 0 {
		return notified, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT listing_id FROM hot_sheet_notifications WHERE hot_sheet_id = $1 AND listing_id = ANY($2)`,
		hotSheetID, pq.Array(listingIDs))
	if err != nil {
		return nil, fmt.Errorf("query notification ledger: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		notified[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}
	return notified, nil
}

// RecordNotification writes one ledger row after the digest job for the
// sheet has been enqueued.
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

// RecipientEmail resolves where a sheet's digest goes: the tied client, or
// the owning agent.
func (s *Store) RecipientEmail(ctx context.Context, hs models.HotSheet) (string, error) {
	var email string
	if hs.ClientID != "" {
		err := s.db.QueryRowContext(ctx,
			`SELECT email FROM clients WHERE id = $1`, hs.ClientID).Scan(&email)
		if err != nil {
			return "", fmt.Errorf("look up client %s: %w", hs.ClientID, err)
		}
		return email, nil
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT email FROM agents WHERE id = $1`, hs.AgentID).Scan(&email)
	if err != nil {
		return "", fmt.Errorf("look up agent %s: %w", hs.AgentID, err)
	}
	return email, nil
}

// MarkSheetRun advances the sheet's digest window.
func (s *Store) MarkSheetRun(ctx context.Context, hotSheetID string, runAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE hot_sheets SET last_run_at = $1, updated_at = $1 WHERE id = $2`,
		runAt, hotSheetID)
	if err != nil {
		return fmt.Errorf("mark sheet run: %w", err)
	}
	return nil
}
