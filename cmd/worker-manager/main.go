// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"hotsheet-workers/internal/common/camunda"
	"hotsheet-workers/internal/common/config"
	"hotsheet-workers/internal/common/database"
	"hotsheet-workers/internal/common/logger"
	"hotsheet-workers/internal/common/observability"
	"hotsheet-workers/internal/common/queue"
	"hotsheet-workers/internal/models"

	// Search Workers (3)
	nc "hotsheet-workers/internal/workers/search/normalize-criteria"
	ql "hotsheet-workers/internal/workers/search/query-listings"
	qli "hotsheet-workers/internal/workers/search/query-listings-index"

	// Matching Workers (1)
	em "hotsheet-workers/internal/workers/matching/evaluate-matches"

	// Notification Workers (3)
	dn "hotsheet-workers/internal/workers/notification/dispatch-notifications"
	rd "hotsheet-workers/internal/workers/notification/run-digest"
	se "hotsheet-workers/internal/workers/notification/send-email"

	// Listing Lifecycle Workers (1)
	ts "hotsheet-workers/internal/workers/listing/transition-status"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	emailQueue := queue.NewEmailJobQueue(redis.Client, cfg.Notifications.QueueKey)
	zapLog.Info("Email job queue initialized", zap.String("queueKey", cfg.Notifications.QueueKey))

	// --- START: Register ALL 8 Workers ---

	// --- 1. Search Workers (3) ---
	if cfg.Workers[nc.TaskType].Enabled {
		handler := nc.NewHandler(
			&nc.Config{
				Timeout: time.Duration(cfg.Workers[nc.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		startWorker(zeebeClient, nc.TaskType, cfg.Workers[nc.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ql.TaskType].Enabled {
		qlCfg := ql.LoadConfig()
		qlCfg.Timeout = time.Duration(cfg.Workers[ql.TaskType].Timeout) * time.Millisecond
		handler := ql.NewHandler(qlCfg, pg.DB, log)
		startWorker(zeebeClient, ql.TaskType, cfg.Workers[ql.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[qli.TaskType].Enabled {
		qliCfg := qli.LoadConfig()
		qliCfg.Timeout = time.Duration(cfg.Workers[qli.TaskType].Timeout) * time.Millisecond
		if cfg.Database.Elasticsearch.ListingIndex != "" {
			qliCfg.Index = cfg.Database.Elasticsearch.ListingIndex
		}
		handler := qli.NewHandler(qliCfg, esClient.Client, log)
		startWorker(zeebeClient, qli.TaskType, cfg.Workers[qli.TaskType], handler.Handle, zapLog)
	}

	// --- 2. Matching Workers (1) ---
	if cfg.Workers[em.TaskType].Enabled {
		handler := em.NewHandler(
			&em.Config{
				Timeout: time.Duration(cfg.Workers[em.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, em.TaskType, cfg.Workers[em.TaskType], handler.Handle, zapLog)
	}

	// --- 3. Notification Workers (3) ---
	if cfg.Workers[dn.TaskType].Enabled {
		dnCfg := dn.LoadConfig()
		dnCfg.Timeout = time.Duration(cfg.Workers[dn.TaskType].Timeout) * time.Millisecond
		handler := dn.NewHandler(dnCfg, pg.DB, redis.Client, emailQueue, log)
		startWorker(zeebeClient, dn.TaskType, cfg.Workers[dn.TaskType], handler.Handle, zapLog)
	}

	seCfg := se.LoadConfig()
	seCfg.EmailEnabled = cfg.Notifications.Email.Enabled
	seCfg.FromEmail = cfg.Notifications.Email.FromEmail
	seCfg.SMSEnabled = cfg.Notifications.SMS.Enabled
	if cfg.Notifications.SMS.PriorityThreshold != "" {
		seCfg.SMSPriority = cfg.Notifications.SMS.PriorityThreshold
	}
	seCfg.AWSRegion = cfg.Notifications.AWS.Region

	// The handler backs both the Camunda task and the queue consumer, so it
	// is built whenever either delivery channel is on.
	var emailHandler *se.Handler
	if cfg.Workers[se.TaskType].Enabled || cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		emailHandler, err = se.NewHandler(seCfg, log)
		if err != nil {
			zapLog.Fatal("send-email handler init failed", zap.Error(err))
		}
	}
	if cfg.Workers[se.TaskType].Enabled {
		startWorker(zeebeClient, se.TaskType, cfg.Workers[se.TaskType], emailHandler.Handle, zapLog)
	}

	var digestHandler *rd.Handler
	if cfg.Workers[rd.TaskType].Enabled {
		rdCfg := rd.LoadConfig()
		if cfg.Workers[rd.TaskType].Timeout > 0 {
			rdCfg.Timeout = time.Duration(cfg.Workers[rd.TaskType].Timeout) * time.Millisecond
		}
		digestHandler = rd.NewHandler(rdCfg, pg.DB, emailQueue, log)
		startWorker(zeebeClient, rd.TaskType, cfg.Workers[rd.TaskType], digestHandler.Handle, zapLog)
	}

	// --- 4. Listing Lifecycle Workers (1) ---
	if cfg.Workers[ts.TaskType].Enabled {
		handler := ts.NewHandler(
			&ts.Config{
				Timeout: time.Duration(cfg.Workers[ts.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, ts.TaskType, cfg.Workers[ts.TaskType], handler.Handle, zapLog)
	}

	// --- END: Register ALL 8 Workers ---

	// --- Queue Consumer ---
	// The dispatcher and digest workers enqueue email jobs to Redis; this
	// consumer drains the queue and delivers through SES/SNS. It follows
	// the notification config, not the Camunda task subscription, so the
	// queue still drains when the broker task is turned off.
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		consumer := se.NewConsumer(seCfg, emailQueue, emailHandler.Service(), log)
		go consumer.Run(consumerCtx)
		zapLog.Info("Email queue consumer started")
	}

	// --- Digest Scheduler ---
	// Cron triggers run alongside the Zeebe task so digests fire on time
	// even when no process instance asks for them.
	scheduler := cron.New()
	if digestHandler != nil {
		scheduleDigest := func(schedule models.NotificationSchedule) func() {
			return func() {
				output, err := digestHandler.Run(ctx, schedule)
				if err != nil {
					zapLog.Error("scheduled digest run failed",
						zap.String("schedule", string(schedule)),
						zap.Error(err),
					)
					return
				}
				zapLog.Info("scheduled digest run completed",
					zap.String("schedule", string(schedule)),
					zap.Int("sheets", output.SheetsProcessed),
					zap.Int("enqueued", output.JobsEnqueued),
				)
			}
		}

		if _, err := scheduler.AddFunc(cfg.Digest.DailyCron, scheduleDigest(models.ScheduleDaily)); err != nil {
			zapLog.Fatal("invalid daily digest cron expression", zap.Error(err))
		}
		if _, err := scheduler.AddFunc(cfg.Digest.WeeklyCron, scheduleDigest(models.ScheduleWeekly)); err != nil {
			zapLog.Fatal("invalid weekly digest cron expression", zap.Error(err))
		}
		scheduler.Start()
		zapLog.Info("Digest scheduler started",
			zap.String("daily", cfg.Digest.DailyCron),
			zap.String("weekly", cfg.Digest.WeeklyCron),
		)
	}

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := zeebeClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "unavailable",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	cronCtx := scheduler.Stop()
	stopConsumer()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range jobWorkers {
		w.Stop(shutdownCtx)
	}

	select {
	case <-cronCtx.Done():
	case <-shutdownCtx.Done():
		zapLog.Warn("Timed out waiting for scheduled digest runs to finish")
	}

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// jobWorkers collects every open subscription so shutdown can drain them.
var jobWorkers []*camunda.JobWorker

func startWorker(client *camunda.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	w := camunda.NewJobWorker(
		client.GetClient(),
		taskType,
		wcfg.MaxJobsActive,
		time.Duration(wcfg.Timeout)*time.Millisecond,
		handlerFunc,
		log,
	)
	jobWorkers = append(jobWorkers, w)
}
