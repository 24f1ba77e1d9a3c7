// Package api exposes the task manager over a local JSON HTTP interface.
package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"prism-todo/domain"
	"prism-todo/tasks"
)

// Service is the slice of *tasks.Manager the handlers need.
type Service interface {
	View() tasks.View
	SetFilter(f domain.Filter)
	SetSearchQuery(q string)
	All() []domain.Task
	Get(id string) (domain.Task, bool)
	Create(f domain.TaskFields) domain.Task
	Update(id string, patch domain.TaskPatch) (domain.Task, bool)
	Toggle(id string) (domain.Task, bool)
	Delete(id string) bool
	Stats() domain.Stats
	Insights() domain.Insights
	Categories() []domain.Category
	Priorities() []domain.Priority
	Snapshot() tasks.Export
	ClearAll(ctx context.Context) error
	Loading() bool
	WriterStats() tasks.WriterStats
}

// Register wires up the middleware and all API routes on the provided Echo instance.
func Register(e *echo.Echo, svc Service, logger *log.Logger) {
	e.JSONSerializer = sonicSerializer{}
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(RequestMetricsMiddleware(logger))
	e.Use(RequestBodyMiddleware(maxBodySize))

	e.GET("/api/tasks", listTasks(svc))
	e.GET("/api/tasks/all", allTasks(svc))
	e.GET("/api/tasks/:id", getTask(svc))
	e.POST("/api/tasks", createTask(svc))
	e.PATCH("/api/tasks/:id", updateTask(svc))
	e.DELETE("/api/tasks/:id", deleteTask(svc))
	e.POST("/api/tasks/:id/toggle", toggleTask(svc))

	e.GET("/api/stats", getStats(svc))
	e.GET("/api/insights", getInsights(svc))
	e.GET("/api/categories", getCategories(svc))
	e.GET("/api/priorities", getPriorities(svc))

	e.GET("/api/export", exportData(svc))
	e.DELETE("/api/data", clearData(svc, logger))
	e.GET("/healthz", healthz(svc))
}
