// Package handlers contains the JSON API handlers.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/open-sspm/open-grc/internal/cloudsec"
	"github.com/open-sspm/open-grc/internal/jobs"
)

const (
	// ContextKeyRequestID stores the request id (X-Request-ID) for logging and client error references.
	ContextKeyRequestID = "request_id"

	// InternalErrorCode is a stable error code safe to return to clients.
	InternalErrorCode = "INTERNAL_ERROR"

	BadRequestCode = "BAD_REQUEST"
	NotFoundCode   = "NOT_FOUND"
)

// CloudSecurity serves the merged provider and finding views.
type CloudSecurity interface {
	GetProviders(ctx context.Context, organizationID string) ([]cloudsec.CloudProvider, error)
	GetFindings(ctx context.Context, organizationID string) ([]cloudsec.CloudFinding, error)
}

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	CloudSec CloudSecurity

	// Queue is optional. When nil, check runs execute inline through Runner.
	Queue       jobs.Queue
	Runner      jobs.CheckRunner
	RetryPolicy jobs.RetryPolicy
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func (h *Handlers) HandleHealthz(c *echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// RenderError logs err and returns a generic 500 response.
func (h *Handlers) RenderError(c *echo.Context, err error) error {
	requestID := RequestID(c)
	method, path := "", ""
	if req := c.Request(); req != nil {
		method = req.Method
		if req.URL != nil {
			path = req.URL.Path
		}
	}
	logger(c).Error("http error",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", c.RealIP(),
		"err", err,
	)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:     "Internal server error.",
		Code:      InternalErrorCode,
		RequestID: requestID,
	})
}

func RenderBadRequest(c *echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:     msg,
		Code:      BadRequestCode,
		RequestID: RequestID(c),
	})
}

// RenderNotFound returns a 404 response.
func RenderNotFound(c *echo.Context) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{
		Error:     "not found",
		Code:      NotFoundCode,
		RequestID: RequestID(c),
	})
}

func RequestID(c *echo.Context) string {
	id, _ := c.Get(ContextKeyRequestID).(string)
	return id
}

func organizationID(c *echo.Context) (string, bool) {
	id := strings.TrimSpace(c.QueryParam("organizationId"))
	return id, id != ""
}

func logger(c *echo.Context) *slog.Logger {
	if l := c.Logger(); l != nil {
		return l
	}
	return slog.Default()
}
