package sendemail

import (
	"context"
	"errors"
	"time"

	"hotsheet-workers/internal/common/logger"
	"hotsheet-workers/internal/common/queue"
)

// Consumer drains the email-job queue and delivers each job through the
// Service. It runs until its context is cancelled.
type Consumer struct {
	config  *Config
	queue   *queue.EmailJobQueue
	service *Service
	logger  logger.Logger
}

func NewConsumer(config *Config, q *queue.EmailJobQueue, service *Service, log logger.Logger) *Consumer {
	return &Consumer{
		config:  config,
		queue:   q,
		service: service,
		logger:  log.WithFields(map[string]interface{}{"component": "email-consumer"}),
	}
}

// Run blocks consuming jobs. A failed delivery is logged and dropped; the
// dispatch ledger upstream prevents the same pair from being re-enqueued,
// so requeueing here would only loop a poison job.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("email consumer started", nil)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("email consumer stopped", nil)
			return ctx.Err()
		default:
		}

		job, err := c.queue.Dequeue(ctx, c.config.PollInterval)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) {
				continue
			}
			if ctx.Err() != nil {
				c.logger.Info("email consumer stopped", nil)
				return ctx.Err()
			}
			c.logger.Error("dequeue failed", map[string]interface{}{
				"error": err.Error(),
			})
			// A broken backend fails Dequeue immediately; wait out a poll
			// interval so the loop does not spin on it.
			select {
			case <-ctx.Done():
				c.logger.Info("email consumer stopped", nil)
				return ctx.Err()
			case <-time.After(c.config.PollInterval):
			}
			continue
		}

		if _, err := c.service.Deliver(ctx, job); err != nil {
			c.logger.Error("delivery failed, dropping job", map[string]interface{}{
				"jobId":     job.ID,
				"template":  job.Template,
				"recipient": job.Recipient,
				"error":     err.Error(),
			})
		}
	}
}
