package evaluatematches

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotsheet-workers/internal/common/logger"
	"hotsheet-workers/internal/models"
)

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl
}

var hotSheetColumns = []string{
	"id", "agent_id", "client_id", "name", "criteria",
	"schedule", "is_active", "last_run_at", "created_at", "updated_at",
}

var clientNeedColumns = []string{
	"id", "name", "email", "phone", "state",
	"city", "property_type", "max_price", "bedrooms", "bathrooms", "created_at",
}

func setupMockDB(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewHandler(LoadConfig(), db, &testLogger{t: t}), mock
}

func intPtr(v int) *int { return &v }

func bostonListing() models.Listing {
	return models.Listing{
		ID:           "lst-1",
		City:         "Boston",
		State:        "MA",
		Price:        500000,
		Bedrooms:     intPtr(3),
		PropertyType: "Single Family",
		Status:       models.StatusActive,
		ListingType:  models.ListingTypeForSale,
	}
}

func TestHandler_Execute_MatchesHotSheetsAndNeeds(t *testing.T) {
	handler, mock := setupMockDB(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM hot_sheets WHERE is_active").
		WillReturnRows(sqlmock.NewRows(hotSheetColumns).
			AddRow("hs-1", "agt-1", "", "Boston buyers",
				[]byte(`{"state":"MA","cities":["Boston"],"max_price":600000,"bedrooms":2}`),
				"immediate", true, nil, now, now).
			AddRow("hs-2", "agt-2", "cli-9", "Big families",
				[]byte(`{"state":"MA","bedrooms":4}`),
				"daily", true, nil, now, now))

	mock.ExpectQuery("SELECT (.+) FROM client_needs").
		WillReturnRows(sqlmock.NewRows(clientNeedColumns).
			AddRow("cn-1", "Pat Doe", "pat@example.com", "", "MA",
				"Boston", "Single Family", 550000.0, nil, nil, now))

	output, err := handler.execute(context.Background(), &Input{Listing: bostonListing()})

	require.NoError(t, err)
	require.Equal(t, 1, output.HotSheetCount)
	assert.Equal(t, "hs-1", output.MatchedHotSheets[0].ID)
	require.Equal(t, 1, output.ClientNeedCount)
	assert.Equal(t, "cn-1", output.MatchedClientNeeds[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_MalformedCriteriaIsUnconstrained(t *testing.T) {
	handler, mock := setupMockDB(t)
	now := time.Now()

	// The blob fails schema validation (state must be a string); the sheet
	// degrades to match-everything instead of failing the run.
	mock.ExpectQuery("SELECT (.+) FROM hot_sheets WHERE is_active").
		WillReturnRows(sqlmock.NewRows(hotSheetColumns).
			AddRow("hs-1", "agt-1", "", "Broken criteria",
				[]byte(`{"state": 99}`), "immediate", true, nil, now, now))

	mock.ExpectQuery("SELECT (.+) FROM client_needs").
		WillReturnRows(sqlmock.NewRows(clientNeedColumns))

	output, err := handler.execute(context.Background(), &Input{Listing: bostonListing()})

	require.NoError(t, err)
	assert.Equal(t, 1, output.HotSheetCount)
}

func TestHandler_Execute_OffMarketListingSkipsEvaluation(t *testing.T) {
	handler, mock := setupMockDB(t)

	listing := bostonListing()
	listing.ListingType = models.ListingTypePrivate

	output, err := handler.execute(context.Background(), &Input{Listing: listing})

	require.NoError(t, err)
	assert.Equal(t, 0, output.HotSheetCount)
	assert.Equal(t, 0, output.ClientNeedCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_StoreFailureSurfaces(t *testing.T) {
	handler, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM hot_sheets WHERE is_active").
		WillReturnError(assert.AnError)

	output, err := handler.execute(context.Background(), &Input{Listing: bostonListing()})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrMatchEvaluationFailed)
}

func TestHandler_Execute_EmptyCriteriaMatchesEverything(t *testing.T) {
	handler, mock := setupMockDB(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM hot_sheets WHERE is_active").
		WillReturnRows(sqlmock.NewRows(hotSheetColumns).
			AddRow("hs-1", "agt-1", "", "Everything", []byte(``),
				"weekly", true, nil, now, now))

	mock.ExpectQuery("SELECT (.+) FROM client_needs").
		WillReturnRows(sqlmock.NewRows(clientNeedColumns))

	output, err := handler.execute(context.Background(), &Input{Listing: bostonListing()})

	require.NoError(t, err)
	assert.Equal(t, 1, output.HotSheetCount)
}
