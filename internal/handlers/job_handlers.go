package handlers

import (
	"context"
	"net/http"
	"sort"

	"tailtown/internal/common"
	"tailtown/internal/jobs"
	"tailtown/internal/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// JobLister reports the jobs registered with the scheduler.
type JobLister interface {
	JobNames() []string
}

// JobHandlers lets operators run maintenance sweeps on demand
type JobHandlers struct {
	scheduler JobLister
	sweeps    map[string]func(context.Context) (*jobs.SweepResult, error)
}

func NewJobHandlers(maintenance *jobs.Maintenance, scheduler JobLister) *JobHandlers {
	return &JobHandlers{
		scheduler: scheduler,
		sweeps: map[string]func(context.Context) (*jobs.SweepResult, error){
			"expire-pending":       maintenance.ExpirePendingReservations,
			"complete-checked-out": maintenance.CompleteCheckedOutReservations,
			"warm-tenant-cache":    maintenance.WarmTenantCache,
		},
	}
}

// JobListResponse names the runnable sweeps and the scheduled jobs.
type JobListResponse struct {
	Runnable  []string `json:"runnable"`
	Scheduled []string `json:"scheduled"`
}

// ListJobs handles GET /admin/jobs
func (h *JobHandlers) ListJobs(c echo.Context) error {
	runnable := make([]string, 0, len(h.sweeps))
	for name := range h.sweeps {
		runnable = append(runnable, name)
	}
	sort.Strings(runnable)

	scheduled := []string{}
	if h.scheduler != nil {
		scheduled = h.scheduler.JobNames()
	}
	return c.JSON(http.StatusOK, JobListResponse{Runnable: runnable, Scheduled: scheduled})
}

// RunJob handles POST /admin/jobs/:name
func (h *JobHandlers) RunJob(c echo.Context) error {
	name := c.Param("name")
	run, ok := h.sweeps[name]
	if !ok {
		return &common.NotFoundError{Entity: "job"}
	}

	result, err := run(c.Request().Context())
	if err != nil {
		return err
	}
	logger.FromEcho(c).Info("Maintenance job triggered manually",
		zap.String("job", name),
		zap.Int("tenants", result.TenantsProcessed),
		zap.Int64("rows", result.RowsAffected))
	return c.JSON(http.StatusOK, result)
}
