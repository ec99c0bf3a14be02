package httpapp

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/open-sspm/open-grc/internal/http/handlers"
)

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h *handlers.Handlers
	e *echo.Echo
}

// NewEchoServer creates a new HTTP server.
func NewEchoServer(h *handlers.Handlers, logger *slog.Logger) *EchoServer {
	if logger == nil {
		logger = slog.Default()
	}
	es := &EchoServer{h: h, e: echo.New()}
	es.e.Logger = logger
	es.e.HTTPErrorHandler = es.httpErrorHandler
	es.e.Use(middleware.Recover())
	es.e.Use(requestID)
	es.registerRoutes()
	return es
}

func (es *EchoServer) registerRoutes() {
	es.e.GET("/healthz", es.h.HandleHealthz)

	v1 := es.e.Group("/v1/cloud-security")
	v1.GET("/providers", es.h.HandleCloudProviders)
	v1.GET("/findings", es.h.HandleCloudFindings)
	v1.POST("/connections/:id/run-checks", es.h.HandleRunChecks)
}

// ServeHTTP lets the server be mounted on any http.Server.
func (es *EchoServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	es.e.ServeHTTP(w, r)
}

type statusCoder interface {
	StatusCode() int
}

func (es *EchoServer) httpErrorHandler(c *echo.Context, err error) {
	status := http.StatusInternalServerError
	var sc statusCoder
	switch {
	case errors.Is(err, echo.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, echo.ErrMethodNotAllowed):
		status = http.StatusMethodNotAllowed
	case errors.As(err, &sc):
		status = sc.StatusCode()
	}

	var renderErr error
	switch {
	case status == http.StatusNotFound:
		renderErr = handlers.RenderNotFound(c)
	case status >= 500:
		renderErr = es.h.RenderError(c, err)
	default:
		renderErr = c.JSON(status, handlers.ErrorResponse{
			Error:     strings.ToLower(http.StatusText(status)),
			Code:      strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_")),
			RequestID: handlers.RequestID(c),
		})
	}
	if renderErr != nil {
		es.e.Logger.Error("render http error failed", "err", renderErr)
	}
}

func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := strings.TrimSpace(c.Request().Header.Get(echo.HeaderXRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(handlers.ContextKeyRequestID, id)
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		return next(c)
	}
}
