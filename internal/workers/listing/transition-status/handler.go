package transitionstatus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"hotsheet-workers/internal/common/logger"
	"hotsheet-workers/internal/common/metrics"
	"hotsheet-workers/internal/models"
)

const TaskType = "transition-status"

var (
	ErrStatusTransitionFailed = errors.New("STATUS_TRANSITION_FAILED")
	ErrInvalidTransition      = errors.New("INVALID_TRANSITION")
)

// Handler applies the one-directional listing lifecycle: scheduled
// activation and expiration sweeps, plus manual promotion of off-market
// listings into public statuses.
type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
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
		errorCode := "STATUS_TRANSITION_FAILED"
		retries := int32(1)
		if errors.Is(err, ErrInvalidTransition) {
			errorCode = "INVALID_TRANSITION"
			retries = 0
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	switch input.Mode {
	case ModeActivate:
		return h.sweep(ctx, input.Mode, activateQuery)
	case ModeExpire:
		return h.sweep(ctx, input.Mode, expireQuery)
	case ModePromote:
		return h.promote(ctx, input)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidTransition, input.Mode)
	}
}

const activateQuery = `UPDATE listings SET status = 'active', updated_at = $1
	WHERE status IN ('new', 'coming_soon')
	AND ((go_live_date IS NOT NULL AND go_live_date <= $1)
	  OR (auto_activate_on IS NOT NULL AND auto_activate_on <= $1))
	RETURNING id`

const expireQuery = `UPDATE listings SET status = 'expired', updated_at = $1
	WHERE status = 'active'
	AND expiration_date IS NOT NULL AND expiration_date <= $1
	RETURNING id`

func (h *Handler) sweep(ctx context.Context, mode, query string) (*Output, error) {
	rows, err := h.db.QueryContext(ctx, query, h.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatusTransitionFailed, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStatusTransitionFailed, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatusTransitionFailed, err)
	}

	h.logger.Info("status sweep completed", map[string]interface{}{
		"mode":     mode,
		"affected": len(ids),
	})

	return &Output{Mode: mode, AffectedIDs: ids, AffectedRows: len(ids)}, nil
}

// promote moves one off-market listing to a public status. Only private
// listings qualify, and only active or coming_soon are valid destinations.
func (h *Handler) promote(ctx context.Context, input *Input) (*Output, error) {
	if input.ListingID == "" {
		return nil, fmt.Errorf("%w: promote requires a listing id", ErrInvalidTransition)
	}
	target := models.ListingStatus(input.TargetStatus)
	if target != models.StatusActive && target != models.StatusComingSoon {
		return nil, fmt.Errorf("%w: cannot promote to %q", ErrInvalidTransition, input.TargetStatus)
	}

	res, err := h.db.ExecContext(ctx,
		`UPDATE listings SET status = $1, listing_type = 'for_sale', updated_at = $2
		 WHERE id = $3 AND listing_type = 'private'`,
		string(target), h.now().UTC(), input.ListingID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatusTransitionFailed, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatusTransitionFailed, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: listing %s is not off-market", ErrInvalidTransition, input.ListingID)
	}

	h.logger.Info("listing promoted", map[string]interface{}{
		"listingId": input.ListingID,
		"status":    string(target),
	})

	return &Output{Mode: ModePromote, AffectedIDs: []string{input.ListingID}, AffectedRows: 1}, nil
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
