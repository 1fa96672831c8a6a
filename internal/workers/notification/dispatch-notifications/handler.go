package dispatchnotifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"hotsheet-workers/internal/common/logger"
	"hotsheet-workers/internal/common/metrics"
	"hotsheet-workers/internal/common/queue"
	"hotsheet-workers/internal/models"
)

const TaskType = "dispatch-notifications"

var (
	ErrQueueInsertFailed = errors.New("QUEUE_INSERT_FAILED")
	ErrLedgerWriteFailed = errors.New("LEDGER_WRITE_FAILED")
)

// Handler turns match sets into email jobs. Recipients are deduplicated by
// address, the ledger guarantees at most one notification per
// (hot sheet, listing) pair, and ledger rows are written only after every
// job for the batch has been enqueued.
type Handler struct {
	config *Config
	store  *Store
	queue  *queue.EmailJobQueue
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, rdb *redis.Client, q *queue.EmailJobQueue, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  NewStore(db, rdb, config.AgentCacheTTL, log),
		queue:  q,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		errorCode := "QUEUE_INSERT_FAILED"
		if errors.Is(err, ErrLedgerWriteFailed) {
			errorCode = "LEDGER_WRITE_FAILED"
		}
		// The ledger makes a whole-batch retry safe.
		h.failJob(client, job, errorCode, err.Error(), 2)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	listing := input.Listing
	output := &Output{}

	recipients := map[string]recipient{}
	var notified []models.HotSheet

	// Hot sheets first, then client needs: a later source for the same
	// address replaces the earlier one.
	for _, hs := range input.MatchedHotSheets {
		seen, err := h.store.AlreadyNotified(ctx, hs.ID, listing.ID)
		if err != nil {
			h.logger.Warn("ledger check failed, skipping hot sheet", map[string]interface{}{
				"hotSheetId": hs.ID,
				"error":      err.Error(),
			})
			output.SkippedRecipients++
			continue
		}
		if seen {
			metrics.NotificationsDeduplicated.WithLabelValues("ledger").Inc()
			output.DedupedByLedger++
			continue
		}

		rcpt, err := h.hotSheetRecipient(ctx, hs, listing)
		if err != nil {
			h.logger.Warn("recipient resolution failed, skipping hot sheet", map[string]interface{}{
				"hotSheetId": hs.ID,
				"error":      err.Error(),
			})
			output.SkippedRecipients++
			continue
		}

		// Addresses dedup case-insensitively; the job keeps the stored casing.
		key := strings.ToLower(rcpt.Email)
		if _, dup := recipients[key]; dup {
			metrics.NotificationsDeduplicated.WithLabelValues("email").Inc()
			output.DedupedByEmail++
		}
		recipients[key] = rcpt
		notified = append(notified, hs)
	}

	for _, need := range input.MatchedClientNeeds {
		if need.Email == "" {
			output.SkippedRecipients++
			continue
		}
		key := strings.ToLower(need.Email)
		if _, dup := recipients[key]; dup {
			metrics.NotificationsDeduplicated.WithLabelValues("email").Inc()
			output.DedupedByEmail++
		}
		recipients[key] = recipient{
			Email:    need.Email,
			Name:     need.Name,
			Source:   "client_need",
			Template: models.TemplateClientNeedNotification,
			Variables: map[string]interface{}{
				"recipientName": need.Name,
				"listingId":     listing.ID,
				"address":       listing.Address,
				"city":          listing.City,
				"state":         listing.State,
				"price":         listing.Price,
			},
		}
	}

	// Enqueue everything before any ledger write. A failed insert aborts
	// the batch so no pair is marked notified without a job behind it.
	for _, rcpt := range recipients {
		job := &models.EmailJob{
			ID:        uuid.NewString(),
			Provider:  h.config.EmailProvider,
			Template:  rcpt.Template,
			Recipient: rcpt.Email,
			Subject:   h.subjectFor(rcpt, listing),
			Variables: rcpt.Variables,
		}
		if err := h.queue.Enqueue(ctx, job); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueueInsertFailed, err)
		}
		metrics.NotificationsEnqueued.WithLabelValues(rcpt.Template).Inc()
		output.EnqueuedJobs++
	}

	for _, hs := range notified {
		rec := models.NotificationRecord{
			HotSheetID: hs.ID,
			ListingID:  listing.ID,
			UserID:     hs.ClientID,
		}
		if err := h.store.RecordNotification(ctx, rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLedgerWriteFailed, err)
		}
		output.LedgerRows++
	}

	h.logger.Info("dispatch completed", map[string]interface{}{
		"listingId":  listing.ID,
		"enqueued":   output.EnqueuedJobs,
		"skipped":    output.SkippedRecipients,
		"ledgerRows": output.LedgerRows,
	})

	return output, nil
}

// hotSheetRecipient resolves where a hot-sheet notification goes: the tied
// client when there is one, the owning agent's profile email otherwise.
func (h *Handler) hotSheetRecipient(ctx context.Context, hs models.HotSheet, listing models.Listing) (recipient, error) {
	variables := map[string]interface{}{
		"hotSheetName": hs.Name,
		"listingId":    listing.ID,
		"address":      listing.Address,
		"city":         listing.City,
		"state":        listing.State,
		"price":        listing.Price,
	}

	if hs.ClientID != "" {
		email, name, err := h.store.ClientContact(ctx, hs.ClientID)
		if err != nil {
			return recipient{}, err
		}
		variables["recipientName"] = name
		return recipient{
			Email:     email,
			Name:      name,
			Source:    "hot_sheet",
			Template:  models.TemplateNewMatchNotification,
			Variables: variables,
		}, nil
	}

	email, err := h.store.AgentEmail(ctx, hs.AgentID)
	if err != nil {
		return recipient{}, err
	}
	return recipient{
		Email:     email,
		Source:    "hot_sheet",
		Template:  models.TemplateNewListingAlert,
		Variables: variables,
	}, nil
}

func (h *Handler) subjectFor(rcpt recipient, listing models.Listing) string {
	switch rcpt.Template {
	case models.TemplateClientNeedNotification:
		return fmt.Sprintf("A new listing in %s matches your needs", listing.City)
	case models.TemplateNewMatchNotification:
		return fmt.Sprintf("New match in %s, %s", listing.City, listing.State)
	default:
		return fmt.Sprintf("New listing alert: %s, %s", listing.City, listing.State)
	}
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
