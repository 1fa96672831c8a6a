package querylistings

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

var listingRowColumns = []string{
	"id", "listing_number", "agent_id", "address", "city", "neighborhood",
	"state", "zip", "price", "property_type", "bedrooms", "bathrooms",
	"square_feet", "status", "listing_type", "created_at", "updated_at",
}

func setupMockDB(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewHandler(LoadConfig(), db, &testLogger{t: t}), mock
}

func TestHandler_Execute_ReturnsListings(t *testing.T) {
	handler, mock := setupMockDB(t)
	now := time.Now()

	rows := sqlmock.NewRows(listingRowColumns).
		AddRow("lst-1", "MLS-100", "agt-1", "1 Main St", "Boston", "Back Bay",
			"MA", "02116", 480000.0, "Single Family", 3, 2.0, 1400,
			"active", "for_sale", now, now).
		AddRow("lst-2", "MLS-101", "agt-2", "9 Elm St", "Boston", nil,
			"MA", "02118", 525000.0, "Condominium", nil, nil, nil,
			"coming_soon", "for_sale", now.Add(-time.Hour), now)

	mock.ExpectQuery("SELECT (.+) FROM listings WHERE").WillReturnRows(rows)

	output, err := handler.execute(context.Background(), &Input{
		Criteria: models.SearchCriteria{State: "MA", Cities: []string{"Boston"}},
	})

	require.NoError(t, err)
	require.Equal(t, 2, output.Count)
	assert.Equal(t, "lst-1", output.Listings[0].ID)
	assert.Equal(t, "Back Bay", output.Listings[0].Neighborhood)
	require.NotNil(t, output.Listings[0].Bedrooms)
	assert.Equal(t, 3, *output.Listings[0].Bedrooms)

	// Missing bed/bath/sqft come back as nil, not zero.
	assert.Nil(t, output.Listings[1].Bedrooms)
	assert.Nil(t, output.Listings[1].Bathrooms)
	assert.Nil(t, output.Listings[1].SquareFeet)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_EmptyResultIsNotAnError(t *testing.T) {
	handler, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM listings WHERE").
		WillReturnRows(sqlmock.NewRows(listingRowColumns))

	output, err := handler.execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, 0, output.Count)
	assert.NotNil(t, output.Listings)
}

func TestHandler_Execute_StoreFailureSurfaces(t *testing.T) {
	handler, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM listings WHERE").
		WillReturnError(assert.AnError)

	output, err := handler.execute(context.Background(), &Input{})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrListingQueryFailed)
}

func TestHandler_Execute_LimitCappedAtMaxResults(t *testing.T) {
	handler, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM listings WHERE").
		WithArgs(sqlmock.AnyArg(), handler.config.MaxResults).
		WillReturnRows(sqlmock.NewRows(listingRowColumns))

	_, err := handler.execute(context.Background(), &Input{Limit: 100000})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
