package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const metricsKey = "api.metrics"

// requestMetrics collects per-request figures and logs them once the handler
// returns. A nil *requestMetrics ignores every call.
type requestMetrics struct {
	logger        *log.Logger
	start         time.Time
	tasksReturned int
	errorStage    string
}

func newRequestMetrics(logger *log.Logger) *requestMetrics {
	return &requestMetrics{logger: logger, start: time.Now(), tasksReturned: -1}
}

func metricsFrom(c echo.Context) *requestMetrics {
	m, _ := c.Get(metricsKey).(*requestMetrics)
	return m
}

func (m *requestMetrics) SetTasksReturned(count int) {
	if m == nil {
		return
	}
	if count < 0 {
		count = 0
	}
	m.tasksReturned = count
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if m == nil || stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *requestMetrics) Log(c echo.Context, status int, err error) {
	if m == nil || m.logger == nil {
		return
	}

	fields := log.Fields{
		"method":     c.Request().Method,
		"route":      c.Path(),
		"status":     status,
		"total_ms":   durationToMillis(time.Since(m.start)),
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
	}
	if m.tasksReturned >= 0 {
		fields["tasks_returned"] = m.tasksReturned
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	m.logger.WithFields(fields).Info("http.request.metrics")
}

// RequestMetricsMiddleware logs one metrics entry per request.
func RequestMetricsMiddleware(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m := newRequestMetrics(logger)
			c.Set(metricsKey, m)
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if err != nil && !c.Response().Committed {
				status = http.StatusInternalServerError
				if errors.As(err, &he) {
					status = he.Code
				}
			}
			m.Log(c, status, err)
			return err
		}
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
