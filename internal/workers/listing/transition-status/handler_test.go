package transitionstatus

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotsheet-workers/internal/common/logger"
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

func setupMockDB(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewHandler(LoadConfig(), db, &testLogger{t: t}), mock
}

func TestHandler_Execute_ActivateSweep(t *testing.T) {
	handler, mock := setupMockDB(t)

	mock.ExpectQuery("UPDATE listings SET status = 'active'").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("lst-1").AddRow("lst-2"))

	output, err := handler.execute(context.Background(), &Input{Mode: ModeActivate})

	require.NoError(t, err)
	assert.Equal(t, 2, output.AffectedRows)
	assert.Equal(t, []string{"lst-1", "lst-2"}, output.AffectedIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ExpireSweep(t *testing.T) {
	handler, mock := setupMockDB(t)

	mock.ExpectQuery("UPDATE listings SET status = 'expired'").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	output, err := handler.execute(context.Background(), &Input{Mode: ModeExpire})

	require.NoError(t, err)
	assert.Equal(t, 0, output.AffectedRows)
	assert.NotNil(t, output.AffectedIDs)
}

func TestHandler_Execute_PromoteOffMarketListing(t *testing.T) {
	handler, mock := setupMockDB(t)

	mock.ExpectExec("UPDATE listings SET status = \\$1, listing_type = 'for_sale'").
		WithArgs("active", sqlmock.AnyArg(), "lst-9").
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := handler.execute(context.Background(), &Input{
		Mode:         ModePromote,
		ListingID:    "lst-9",
		TargetStatus: "active",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.AffectedRows)
	assert.Equal(t, []string{"lst-9"}, output.AffectedIDs)
}

func TestHandler_Execute_PromoteRejectsNonPrivate(t *testing.T) {
	handler, mock := setupMockDB(t)

	// The guard matches zero rows: the listing is already public.
	mock.ExpectExec("UPDATE listings SET status = \\$1, listing_type = 'for_sale'").
		WillReturnResult(sqlmock.NewResult(0, 0))

	output, err := handler.execute(context.Background(), &Input{
		Mode:         ModePromote,
		ListingID:    "lst-9",
		TargetStatus: "active",
	})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestHandler_Execute_PromoteValidation(t *testing.T) {
	handler, _ := setupMockDB(t)

	tests := []struct {
		name  string
		input *Input
	}{
		{
			name:  "missing listing id",
			input: &Input{Mode: ModePromote, TargetStatus: "active"},
		},
		{
			name:  "downgrade target",
			input: &Input{Mode: ModePromote, ListingID: "lst-9", TargetStatus: "sold"},
		},
		{
			name:  "private target",
			input: &Input{Mode: ModePromote, ListingID: "lst-9", TargetStatus: "private"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.execute(context.Background(), tt.input)
			assert.Nil(t, output)
			assert.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}

func TestHandler_Execute_UnknownMode(t *testing.T) {
	handler, _ := setupMockDB(t)

	output, err := handler.execute(context.Background(), &Input{Mode: "demolish"})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
