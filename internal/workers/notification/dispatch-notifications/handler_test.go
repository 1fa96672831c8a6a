package dispatchnotifications

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotsheet-workers/internal/common/logger"
	"hotsheet-workers/internal/common/queue"
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

type fixture struct {
	handler *Handler
	mock    sqlmock.Sqlmock
	redis   *miniredis.Miniredis
	queue   *queue.EmailJobQueue
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	q := queue.NewEmailJobQueue(rdb, "email:jobs")
	return &fixture{
		handler: NewHandler(LoadConfig(), db, rdb, q, &testLogger{t: t}),
		mock:    mock,
		redis:   mr,
		queue:   q,
	}
}

func bostonListing() models.Listing {
	return models.Listing{
		ID:      "lst-1",
		Address: "1 Main St",
		City:    "Boston",
		State:   "MA",
		Price:   500000,
	}
}

func agentSheet(id, agentID string) models.HotSheet {
	return models.HotSheet{
		ID:       id,
		AgentID:  agentID,
		Name:     "Boston buyers",
		Schedule: models.ScheduleImmediate,
		IsActive: true,
	}
}

func expectLedgerMiss(mock sqlmock.Sqlmock, hotSheetID, listingID string) {
	mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM hot_sheet_notifications").
		WithArgs(hotSheetID, listingID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
}

func TestHandler_Execute_EnqueuesAndRecordsLedger(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	expectLedgerMiss(f.mock, "hs-1", "lst-1")
	f.mock.ExpectQuery("SELECT email FROM agents").
		WithArgs("agt-1").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("agent@example.com"))
	f.mock.ExpectExec("INSERT INTO hot_sheet_notifications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := f.handler.execute(ctx, &Input{
		Listing:          bostonListing(),
		MatchedHotSheets: []models.HotSheet{agentSheet("hs-1", "agt-1")},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.EnqueuedJobs)
	assert.Equal(t, 1, output.LedgerRows)

	job, err := f.queue.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "agent@example.com", job.Recipient)
	assert.Equal(t, models.TemplateNewListingAlert, job.Template)

	// The agent email landed in the cache.
	cached, err := f.redis.Get("agent:email:agt-1")
	require.NoError(t, err)
	assert.Equal(t, "agent@example.com", cached)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestHandler_Execute_LedgerHitSkipsEnqueue(t *testing.T) {
	f := setup(t)

	f.mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM hot_sheet_notifications").
		WithArgs("hs-1", "lst-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	output, err := f.handler.execute(context.Background(), &Input{
		Listing:          bostonListing(),
		MatchedHotSheets: []models.HotSheet{agentSheet("hs-1", "agt-1")},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, output.EnqueuedJobs)
	assert.Equal(t, 1, output.DedupedByLedger)
	assert.Equal(t, 0, output.LedgerRows)

	n, err := f.queue.Length(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandler_Execute_DedupSameRecipientLastWriteWins(t *testing.T) {
	f := setup(t)

	// The hot sheet's agent and the client need share an address; exactly
	// one job goes out and the client-need source wins.
	expectLedgerMiss(f.mock, "hs-1", "lst-1")
	f.mock.ExpectQuery("SELECT email FROM agents").
		WithArgs("agt-1").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("shared@example.com"))
	f.mock.ExpectExec("INSERT INTO hot_sheet_notifications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := f.handler.execute(context.Background(), &Input{
		Listing:          bostonListing(),
		MatchedHotSheets: []models.HotSheet{agentSheet("hs-1", "agt-1")},
		MatchedClientNeeds: []models.ClientNeed{{
			ID:    "cn-1",
			Name:  "Pat Doe",
			Email: "shared@example.com",
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.EnqueuedJobs)
	assert.Equal(t, 1, output.DedupedByEmail)

	job, err := f.queue.Dequeue(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, models.TemplateClientNeedNotification, job.Template)

	// The sheet still gets its ledger row: the recipient was notified.
	assert.Equal(t, 1, output.LedgerRows)
}

func TestHandler_Execute_DedupIgnoresEmailCase(t *testing.T) {
	f := setup(t)

	// Same mailbox with different casing must still collapse to one job.
	expectLedgerMiss(f.mock, "hs-1", "lst-1")
	f.mock.ExpectQuery("SELECT email FROM agents").
		WithArgs("agt-1").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("Agent@Example.com"))
	f.mock.ExpectExec("INSERT INTO hot_sheet_notifications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := f.handler.execute(context.Background(), &Input{
		Listing:          bostonListing(),
		MatchedHotSheets: []models.HotSheet{agentSheet("hs-1", "agt-1")},
		MatchedClientNeeds: []models.ClientNeed{{
			ID:    "cn-1",
			Name:  "Pat Doe",
			Email: "agent@example.com",
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.EnqueuedJobs)
	assert.Equal(t, 1, output.DedupedByEmail)

	job, err := f.queue.Dequeue(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, models.TemplateClientNeedNotification, job.Template)
	// The last write keeps its own stored casing.
	assert.Equal(t, "agent@example.com", job.Recipient)

	n, err := f.queue.Length(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	// The sheet was notified through the shared mailbox, so it ledgers.
	assert.Equal(t, 1, output.LedgerRows)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestHandler_Execute_ClientTiedSheetUsesClientContact(t *testing.T) {
	f := setup(t)

	sheet := agentSheet("hs-1", "agt-1")
	sheet.ClientID = "cli-9"

	expectLedgerMiss(f.mock, "hs-1", "lst-1")
	f.mock.ExpectQuery("SELECT email, name FROM clients").
		WithArgs("cli-9").
		WillReturnRows(sqlmock.NewRows([]string{"email", "name"}).AddRow("client@example.com", "Sam Lee"))
	f.mock.ExpectExec("INSERT INTO hot_sheet_notifications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := f.handler.execute(context.Background(), &Input{
		Listing:          bostonListing(),
		MatchedHotSheets: []models.HotSheet{sheet},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.EnqueuedJobs)

	job, err := f.queue.Dequeue(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "client@example.com", job.Recipient)
	assert.Equal(t, models.TemplateNewMatchNotification, job.Template)
	assert.Equal(t, "Sam Lee", job.Variables["recipientName"])
}

func TestHandler_Execute_RecipientLookupFailureSkipsAndContinues(t *testing.T) {
	f := setup(t)

	expectLedgerMiss(f.mock, "hs-1", "lst-1")
	f.mock.ExpectQuery("SELECT email FROM agents").
		WithArgs("agt-1").
		WillReturnError(assert.AnError)
	expectLedgerMiss(f.mock, "hs-2", "lst-1")
	f.mock.ExpectQuery("SELECT email FROM agents").
		WithArgs("agt-2").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("second@example.com"))
	f.mock.ExpectExec("INSERT INTO hot_sheet_notifications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := f.handler.execute(context.Background(), &Input{
		Listing: bostonListing(),
		MatchedHotSheets: []models.HotSheet{
			agentSheet("hs-1", "agt-1"),
			agentSheet("hs-2", "agt-2"),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.SkippedRecipients)
	assert.Equal(t, 1, output.EnqueuedJobs)
	// Only the delivered sheet gets a ledger row.
	assert.Equal(t, 1, output.LedgerRows)
}

func TestHandler_Execute_QueueFailureIsBatchFatal(t *testing.T) {
	f := setup(t)

	expectLedgerMiss(f.mock, "hs-1", "lst-1")
	f.mock.ExpectQuery("SELECT email FROM agents").
		WithArgs("agt-1").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("agent@example.com"))

	// Kill the queue backend before dispatch.
	f.redis.Close()

	output, err := f.handler.execute(context.Background(), &Input{
		Listing:          bostonListing(),
		MatchedHotSheets: []models.HotSheet{agentSheet("hs-1", "agt-1")},
	})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrQueueInsertFailed)

	// No ledger row may exist for a pair whose job never made it out.
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestHandler_Execute_CachedAgentEmailSkipsDatabase(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.redis.Set("agent:email:agt-1", "cached@example.com"))

	expectLedgerMiss(f.mock, "hs-1", "lst-1")
	f.mock.ExpectExec("INSERT INTO hot_sheet_notifications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := f.handler.execute(context.Background(), &Input{
		Listing:          bostonListing(),
		MatchedHotSheets: []models.HotSheet{agentSheet("hs-1", "agt-1")},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.EnqueuedJobs)

	job, err := f.queue.Dequeue(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "cached@example.com", job.Recipient)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
