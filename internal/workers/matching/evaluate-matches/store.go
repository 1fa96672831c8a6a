package evaluatematches

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"hotsheet-workers/internal/common/logger"
	"hotsheet-workers/internal/common/validation"
	"hotsheet-workers/internal/models"
)

// Store reads the saved-search side of a match run: every active hot sheet
// and every open client need.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{db: db, logger: log}
}

const activeHotSheetsQuery = `SELECT id, agent_id, COALESCE(client_id, ''), name, criteria,
	schedule, is_active, last_run_at, created_at, updated_at
	FROM hot_sheets WHERE is_active = TRUE`

// ActiveHotSheets loads every enabled hot sheet. A criteria blob that fails
// schema validation degrades to an empty record, matching everything on
// that sheet rather than aborting the whole run.
func (s *Store) ActiveHotSheets(ctx context.Context) ([]models.HotSheet, error) {
	rows, err := s.db.QueryContext(ctx, activeHotSheetsQuery)
	if err != nil {
		return nil, fmt.Errorf("query hot sheets: %w", err)
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
			return nil, fmt.Errorf("scan hot sheet: %w", err)
		}
		if lastRunAt.Valid {
			t := lastRunAt.Time
			hs.LastRunAt = &t
		}
		hs.Criteria = s.decodeCriteria(hs.ID, blob)
		sheets = append(sheets, hs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hot sheets: %w", err)
	}
	return sheets, nil
}

// decodeCriteria is deliberately lenient: unknown fields are ignored and a
// malformed blob yields an unconstrained record.
func (s *Store) decodeCriteria(hotSheetID string, blob []byte) models.CriteriaRecord {
	var record models.CriteriaRecord

	if err := validation.ValidateCriteriaBlob(blob); err != nil {
		s.logger.Warn("criteria blob rejected, treating sheet as unconstrained", map[string]interface{}{
			"hotSheetId": hotSheetID,
			"error":      err.Error(),
		})
		return record
	}
	if len(blob) == 0 {
		return record
	}
	if err := json.Unmarshal(blob, &record); err != nil {
		s.logger.Warn("criteria blob decode failed, treating sheet as unconstrained", map[string]interface{}{
			"hotSheetId": hotSheetID,
			"error":      err.Error(),
		})
		return models.CriteriaRecord{}
	}
	return record
}

const openClientNeedsQuery = `SELECT id, name, email, COALESCE(phone, ''), COALESCE(state, ''),
	COALESCE(city, ''), COALESCE(property_type, ''), max_price, bedrooms, bathrooms, created_at
	FROM client_needs`

// OpenClientNeeds loads every client need on file.
func (s *Store) OpenClientNeeds(ctx context.Context) ([]models.ClientNeed, error) {
	rows, err := s.db.QueryContext(ctx, openClientNeedsQuery)
	if err != nil {
		return nil, fmt.Errorf("query client needs: %w", err)
	}
	defer rows.Close()

	needs := []models.ClientNeed{}
	for rows.Next() {
		var (
			need      models.ClientNeed
			maxPrice  sql.NullFloat64
			bedrooms  sql.NullInt64
			bathrooms sql.NullFloat64
		)
		if err := rows.Scan(&need.ID, &need.Name, &need.Email, &need.Phone, &need.State,
			&need.City, &need.PropertyType, &maxPrice, &bedrooms, &bathrooms, &need.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client need: %w", err)
		}
		if maxPrice.Valid {
			v := maxPrice.Float64
			need.MaxPrice = &v
		}
		if bedrooms.Valid {
			v := int(bedrooms.Int64)
			need.Bedrooms = &v
		}
		if bathrooms.Valid {
			v := bathrooms.Float64
			need.Bathrooms = &v
		}
		needs = append(needs, need)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client needs: %w", err)
	}
	return needs, nil
}
