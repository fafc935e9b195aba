package handlers

import (
	"context"
	"net/http"
	"time"

	"bizmanager/internal/common"
	"bizmanager/internal/jobs"
	"bizmanager/internal/jobs/background"

	"github.com/labstack/echo/v4"
)

type JobRunner interface {
	GetJobStatus() []background.JobStatus
	RunNow(name string) error
}

type AlertChecker interface {
	CheckReorder(ctx context.Context) ([]jobs.InventoryAlert, error)
	CheckExpiring(ctx context.Context, window time.Duration) ([]jobs.InventoryAlert, error)
}

type JobHandlers struct {
	scheduler     JobRunner
	alerts        AlertChecker
	defaultWindow time.Duration
}

// NewJobHandlers builds the job endpoints. scheduler may be nil when
// background jobs are disabled; the alert checks still work on demand.
func NewJobHandlers(scheduler JobRunner, alerts AlertChecker, defaultWindow time.Duration) *JobHandlers {
	return &JobHandlers{
		scheduler:     scheduler,
		alerts:        alerts,
		defaultWindow: defaultWindow,
	}
}

// ListJobs
//
//	@Summary	List background jobs
//	@Tags		jobs
//	@Produce	json
//	@Success	200	{array}	background.JobStatus
//	@Router		/v1/jobs [get]
func (h *JobHandlers) ListJobs(c echo.Context) error {
	if h.scheduler == nil {
		return c.JSON(http.StatusOK, []background.JobStatus{})
	}
	return c.JSON(http.StatusOK, h.scheduler.GetJobStatus())
}

// RunJob
//
//	@Summary	Trigger a background job now
//	@Tags		jobs
//	@Param		name	path	string	true	"Job name"
//	@Success	202
//	@Failure	404	{object}	common.ErrorResponse
//	@Router		/v1/jobs/{name}/run [post]
func (h *JobHandlers) RunJob(c echo.Context) error {
	name := c.Param("name")
	if h.scheduler == nil || !h.hasJob(name) {
		return c.JSON(http.StatusNotFound, common.CreateErrorResponse("NOT_FOUND", "Job not found", nil))
	}
	if err := h.scheduler.RunNow(name); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"job": name, "status": "triggered"})
}

func (h *JobHandlers) hasJob(name string) bool {
	for _, s := range h.scheduler.GetJobStatus() {
		if s.Name == name {
			return true
		}
	}
	return false
}

type inventoryAlertsResponse struct {
	Kind   string                `json:"kind"`
	Alerts []jobs.InventoryAlert `json:"alerts"`
}

// GetInventoryAlerts runs a reorder or expiry check on demand. kind defaults
// to reorder; window applies to expiry checks and takes a Go duration.
//
//	@Summary	Check inventory alerts
//	@Tags		jobs
//	@Produce	json
//	@Param		kind	query		string	false	"reorder or expiring"
//	@Param		window	query		string	false	"Expiry window, e.g. 72h"
//	@Success	200		{object}	inventoryAlertsResponse
//	@Failure	400		{object}	common.ErrorResponse
//	@Router		/v1/jobs/inventory-alerts [get]
func (h *JobHandlers) GetInventoryAlerts(c echo.Context) error {
	ctx := c.Request().Context()
	kind := c.QueryParam("kind")
	if kind == "" {
		kind = jobs.AlertReorder
	}

	var (
		alerts []jobs.InventoryAlert
		err    error
	)
	switch kind {
	case jobs.AlertReorder:
		alerts, err = h.alerts.CheckReorder(ctx)
	case jobs.AlertExpiring:
		window := h.defaultWindow
		if raw := c.QueryParam("window"); raw != "" {
			window, err = time.ParseDuration(raw)
			if err != nil || window <= 0 {
				return common.SendValidationError(c, "window", "must be a positive duration")
			}
		}
		alerts, err = h.alerts.CheckExpiring(ctx, window)
	default:
		return common.SendValidationError(c, "kind", "must be reorder or expiring")
	}
	if err != nil {
		return common.SendError(c, err)
	}
	if alerts == nil {
		alerts = []jobs.InventoryAlert{}
	}
	return c.JSON(http.StatusOK, inventoryAlertsResponse{Kind: kind, Alerts: alerts})
}
