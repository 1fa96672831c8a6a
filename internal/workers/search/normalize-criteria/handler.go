package normalizecriteria

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"hotsheet-workers/internal/common/logger"
	"hotsheet-workers/internal/common/metrics"
	"hotsheet-workers/internal/criteria"
)

const TaskType = "normalize-criteria"

var (
	ErrInvalidCriteriaFormat = errors.New("INVALID_CRITERIA_FORMAT")
)

// Handler normalizes raw user-entered search criteria into the canonical
// filter record the query and matching workers consume. Unresolvable values
// pass through unchanged with a warning; the search still runs.
type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
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
		h.failJob(client, job, "INVALID_CRITERIA_FORMAT", err.Error(), 0)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	var raw criteria.RawCriteria
	if len(input.Criteria) > 0 {
		if err := json.Unmarshal(input.Criteria, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCriteriaFormat, err)
		}
	}

	normalized, warnings := criteria.Normalize(raw)

	for _, w := range warnings {
		h.logger.Warn("criteria value passed through unresolved", map[string]interface{}{
			"field":   w.Field,
			"value":   w.Value,
			"message": w.Message,
		})
	}

	h.logger.Info("criteria normalized", map[string]interface{}{
		"state":     normalized.State,
		"cityCount": len(normalized.Cities),
		"typeCount": len(normalized.PropertyTypes),
		"warnings":  len(warnings),
	})

	if warnings == nil {
		warnings = []criteria.Warning{}
	}
	return &Output{Criteria: normalized, Warnings: warnings}, nil
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, _ int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
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
