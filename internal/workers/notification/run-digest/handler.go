package rundigest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"hotsheet-workers/internal/common/logger"
	"hotsheet-workers/internal/common/metrics"
	"hotsheet-workers/internal/common/queue"
	"hotsheet-workers/internal/criteria"
	"hotsheet-workers/internal/models"
)

const TaskType = "run-digest"

var (
	ErrQueueInsertFailed = errors.New("QUEUE_INSERT_FAILED")
	ErrDigestRunFailed   = errors.New("DIGEST_RUN_FAILED")
)

// Handler runs one daily or weekly digest pass: every active sheet on the
// schedule is evaluated serially against listings created since its last
// run, and one digest email per sheet is enqueued for the new matches.
type Handler struct {
	config *Config
	store  *Store
	queue  *queue.EmailJobQueue
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, q *queue.EmailJobQueue, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  NewStore(db, log),
		queue:  q,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "DIGEST_RUN_FAILED"
		if errors.Is(err, ErrQueueInsertFailed) {
			errorCode = "QUEUE_INSERT_FAILED"
		}
		// The ledger makes a whole-run retry safe.
		h.failJob(client, job, errorCode, err.Error(), 2)
		return
	}

	h.completeJob(client, job, output)
}

// Run executes one digest pass outside the job lifecycle. The cron
// scheduler in the worker manager uses it for timed daily and weekly runs.
func (h *Handler) Run(ctx context.Context, schedule models.NotificationSchedule) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()
	return h.execute(ctx, &Input{Schedule: schedule})
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	schedule := input.Schedule
	if schedule != models.ScheduleDaily && schedule != models.ScheduleWeekly {
		return nil, fmt.Errorf("%w: unsupported schedule %q", ErrDigestRunFailed, schedule)
	}

	sheets, err := h.store.DigestHotSheets(ctx, schedule)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDigestRunFailed, err)
	}

	runAt := h.now().UTC()
	output := &Output{}

	// One pass over the widest possible window; per-sheet windows narrow
	// it in memory.
	listings, err := h.store.RecentListings(ctx, runAt.Add(-h.fallbackWindow(schedule)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDigestRunFailed, err)
	}
	output.ListingsConsidered = len(listings)

	for _, hs := range sheets {
		if err := h.runSheet(ctx, hs, listings, schedule, runAt, output); err != nil {
			if errors.Is(err, ErrQueueInsertFailed) {
				return nil, err
			}
			h.logger.Warn("digest sheet failed, continuing", map[string]interface{}{
				"hotSheetId": hs.ID,
				"error":      err.Error(),
			})
			output.SheetsSkipped++
		}
	}

	h.logger.Info("digest run completed", map[string]interface{}{
		"schedule": string(schedule),
		"sheets":   output.SheetsProcessed,
		"skipped":  output.SheetsSkipped,
		"enqueued": output.JobsEnqueued,
		"listings": output.ListingsConsidered,
	})

	return output, nil
}

func (h *Handler) runSheet(ctx context.Context, hs models.HotSheet, listings []models.Listing,
	schedule models.NotificationSchedule, runAt time.Time, output *Output) error {

	windowStart := runAt.Add(-h.fallbackWindow(schedule))
	if hs.LastRunAt != nil && hs.LastRunAt.After(windowStart) {
		windowStart = *hs.LastRunAt
	}

	sc := hs.Criteria.ToSearchCriteria()
	matched := []models.Listing{}
	for i := range listings {
		l := listings[i]
		if l.CreatedAt.Before(windowStart) {
			continue
		}
		if criteria.MatchesHotSheet(&l, sc) {
			matched = append(matched, l)
		}
		if len(matched) >= h.config.MaxListings {
			break
		}
	}

	ids := make([]string, len(matched))
	for i, l := range matched {
		ids[i] = l.ID
	}
	seen, err := h.store.NotifiedListings(ctx, hs.ID, ids)
	if err != nil {
		return err
	}

	fresh := matched[:0:0]
	for _, l := range matched {
		if seen[l.ID] {
			metrics.NotificationsDeduplicated.WithLabelValues("ledger").Inc()
			continue
		}
		fresh = append(fresh, l)
	}

	if len(fresh) > 0 {
		email, err := h.store.RecipientEmail(ctx, hs)
		if err != nil {
			return err
		}

		job := &models.EmailJob{
			ID:        uuid.NewString(),
			Provider:  h.config.EmailProvider,
			Template:  models.TemplateHotSheetDigest,
			Recipient: email,
			Subject:   fmt.Sprintf("%s: %d new listings", hs.Name, len(fresh)),
			Variables: map[string]interface{}{
				"hotSheetName": hs.Name,
				"listingCount": len(fresh),
				"listings":     digestListingSummaries(fresh),
			},
		}
		if err := h.queue.Enqueue(ctx, job); err != nil {
			return fmt.Errorf("%w: %v", ErrQueueInsertFailed, err)
		}
		metrics.NotificationsEnqueued.WithLabelValues(models.TemplateHotSheetDigest).Inc()
		output.JobsEnqueued++

		// Ledger rows only after the enqueue succeeded.
		for _, l := range fresh {
			rec := models.NotificationRecord{
				HotSheetID: hs.ID,
				ListingID:  l.ID,
				UserID:     hs.ClientID,
			}
			if err := h.store.RecordNotification(ctx, rec); err != nil {
				return err
			}
			output.LedgerRows++
		}
	}

	if err := h.store.MarkSheetRun(ctx, hs.ID, runAt); err != nil {
		return err
	}
	output.SheetsProcessed++
	return nil
}

func (h *Handler) fallbackWindow(schedule models.NotificationSchedule) time.Duration {
	if schedule == models.ScheduleWeekly {
		return h.config.WeeklyWindow
	}
	return h.config.DailyWindow
}

func digestListingSummaries(listings []models.Listing) []map[string]interface{} {
	summaries := make([]map[string]interface{}, 0, len(listings))
	for _, l := range listings {
		summaries = append(summaries, map[string]interface{}{
			"listingId": l.ID,
			"address":   l.Address,
			"city":      l.City,
			"state":     l.State,
			"price":     l.Price,
		})
	}
	return summaries
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
		"retries":      retries,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType).Inc()

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send throw error command", map[string]interface{}{
			"error": err,
		})
	}
}
