package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/open-sspm/open-grc/internal/checkrunner"
	"github.com/open-sspm/open-grc/internal/jobs"
)

type queuedResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

// HandleRunChecks queues a check run for the connection, or runs it inline
// with retries when no queue is configured.
func (h *Handlers) HandleRunChecks(c *echo.Context) error {
	orgID, ok := organizationID(c)
	if !ok {
		return RenderBadRequest(c, missingOrganizationID)
	}
	connectionID := strings.TrimSpace(c.Param("id"))
	if connectionID == "" {
		return RenderBadRequest(c, "connection id is required")
	}

	req := checkrunner.Request{ConnectionID: connectionID, OrganizationID: orgID}
	ctx := c.Request().Context()

	if h.Queue != nil {
		job, err := h.Queue.Enqueue(ctx, jobs.CheckRunJob{Request: req})
		if err != nil {
			return h.RenderError(c, err)
		}
		return c.JSON(http.StatusAccepted, queuedResponse{JobID: job.ID, Status: "queued"})
	}

	if h.Runner == nil {
		return h.RenderError(c, errors.New("no check runner configured"))
	}
	res, err := jobs.RunWithRetry(ctx, h.Runner, req, h.RetryPolicy, logger(c))
	if err != nil {
		return h.RenderError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
