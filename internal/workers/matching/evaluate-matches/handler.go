package evaluatematches

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"hotsheet-workers/internal/common/logger"
	"hotsheet-workers/internal/common/metrics"
	"hotsheet-workers/internal/criteria"
	"hotsheet-workers/internal/models"
)

const TaskType = "evaluate-matches"

var (
	ErrMatchEvaluationFailed = errors.New("MATCH_EVALUATION_FAILED")
)

// Handler evaluates one changed listing against every active hot sheet and
// client need. The evaluation itself is pure; the only I/O is loading the
// saved-search side from the store.
type Handler struct {
	config *Config
	store  *Store
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  NewStore(db, log),
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
		h.failJob(client, job, "MATCH_EVALUATION_FAILED", err.Error(), 1)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	listing := input.Listing

	result := &Output{
		Listing:            listing,
		MatchedHotSheets:   []models.HotSheet{},
		MatchedClientNeeds: []models.ClientNeed{},
	}

	if !listing.IsPublic() {
		h.logger.Info("listing is off market, skipping match evaluation", map[string]interface{}{
			"listingId": listing.ID,
		})
		return result, nil
	}

	sheets, err := h.store.ActiveHotSheets(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMatchEvaluationFailed, err)
	}
	needs, err := h.store.OpenClientNeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMatchEvaluationFailed, err)
	}
	for _, hs := range sheets {
		matched := criteria.MatchesHotSheet(&listing, hs.Criteria.ToSearchCriteria())
		metrics.MatchesEvaluated.WithLabelValues("hot_sheet", strconv.FormatBool(matched)).Inc()
		if matched {
			result.MatchedHotSheets = append(result.MatchedHotSheets, hs)
		}
	}
	for _, need := range needs {
		need := need
		matched := criteria.MatchesClientNeed(&listing, &need)
		metrics.MatchesEvaluated.WithLabelValues("client_need", strconv.FormatBool(matched)).Inc()
		if matched {
			result.MatchedClientNeeds = append(result.MatchedClientNeeds, need)
		}
	}

	result.HotSheetCount = len(result.MatchedHotSheets)
	result.ClientNeedCount = len(result.MatchedClientNeeds)

	h.logger.Info("match evaluation completed", map[string]interface{}{
		"listingId":    listing.ID,
		"hotSheets":    result.HotSheetCount,
		"clientNeeds":  result.ClientNeedCount,
		"sheetsLoaded": len(sheets),
		"needsLoaded":  len(needs),
	})

	return result, nil
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
