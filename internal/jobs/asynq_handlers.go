package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tailtown/internal/metrics"
	"tailtown/internal/models"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Task type definitions
const (
	TypeReservationImport = "reservation:import"
)

const importQueue = "imports"

// ReservationImportPayload identifies a stored import file to process.
type ReservationImportPayload struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	Subdomain string    `json:"subdomain"`
	JobID     uuid.UUID `json:"job_id"`
}

// NewReservationImportTask creates a new reservation import task
func NewReservationImportTask(scope tenancy.Scope, jobID uuid.UUID) (*asynq.Task, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(ReservationImportPayload{
		TenantID:  tenantID,
		Subdomain: scope.Subdomain(),
		JobID:     jobID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReservationImport, data,
		asynq.Queue(importQueue),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Minute),
		// one task per job; a resubmitted job id is dropped
		asynq.TaskID(jobID.String()),
	), nil
}

// ImportRunner is the part of the import service the worker drives.
type ImportRunner interface {
	Run(ctx context.Context, scope tenancy.Scope, jobID uuid.UUID) (*models.ImportJob, error)
}

// Enqueuer puts import jobs on the asynq queue.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueImport(ctx context.Context, scope tenancy.Scope, jobID uuid.UUID) error {
	task, err := NewReservationImportTask(scope, jobID)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task)
	return err
}

// ImportWorker consumes reservation import tasks.
type ImportWorker struct {
	runner ImportRunner
	log    *zap.Logger
}

func NewImportWorker(runner ImportRunner, log *zap.Logger) *ImportWorker {
	return &ImportWorker{runner: runner, log: log}
}

// HandleReservationImport handles reservation import tasks
func (w *ImportWorker) HandleReservationImport(ctx context.Context, t *asynq.Task) error {
	var payload ReservationImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal import payload: %v: %w", err, asynq.SkipRetry)
	}
	scope, err := tenancy.NewScope(payload.TenantID, payload.Subdomain)
	if err != nil {
		return fmt.Errorf("import task without tenant: %w", asynq.SkipRetry)
	}

	defer metrics.TrackJob(TypeReservationImport)(time.Now())
	w.log.Info("starting reservation import",
		zap.String("tenant_id", payload.TenantID.String()),
		zap.String("job_id", payload.JobID.String()),
	)

	job, err := w.runner.Run(ctx, scope, payload.JobID)
	if err != nil {
		w.log.Error("reservation import failed",
			zap.String("tenant_id", payload.TenantID.String()),
			zap.String("job_id", payload.JobID.String()),
			zap.Error(err),
		)
		if job == nil {
			// the job record is gone; retrying cannot help
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}

// NewServeMux registers every task handler.
func NewServeMux(worker *ImportWorker) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReservationImport, worker.HandleReservationImport)
	return mux
}

// NewServer builds the asynq worker server for the given redis address.
func NewServer(redisOpt asynq.RedisClientOpt, concurrency int, log *zap.Logger) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 5
	}
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{importQueue: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Warn("task failed", zap.String("type", task.Type()), zap.Error(err))
		}),
	})
}
