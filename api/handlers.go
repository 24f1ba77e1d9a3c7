package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"prism-todo/domain"
)

func queryValue(c echo.Context, key string) (string, bool) {
	vals, ok := c.QueryParams()[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// decodeTaskRequest reads the body into req and decodes it strictly. When it
// reports false the error response has already been written and err is the
// result to return from the handler.
func decodeTaskRequest(c echo.Context, req *taskRequest) (ok bool, err error) {
	metrics := metricsFrom(c)
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.SetErrorStage("body_too_large")
			return false, c.String(http.StatusRequestEntityTooLarge, "body too large")
		}
		metrics.SetErrorStage("read_body")
		return false, c.String(http.StatusBadRequest, "invalid body")
	}
	dec := sonic.ConfigStd.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		metrics.SetErrorStage("invalid_body")
		return false, c.String(http.StatusBadRequest, "invalid body")
	}
	return true, nil
}

// listTasks applies the filter and search parameters, when given, to the
// session and returns the resulting view.
func listTasks(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		metrics := metricsFrom(c)
		if v, ok := queryValue(c, "filter"); ok {
			f, err := domain.ParseFilter(v)
			if err != nil {
				metrics.SetErrorStage("invalid_filter")
				return c.String(http.StatusBadRequest, err.Error())
			}
			svc.SetFilter(f)
		}
		if v, ok := queryValue(c, "q"); ok {
			svc.SetSearchQuery(v)
		}
		view := svc.View()
		metrics.SetTasksReturned(len(view.Tasks))
		return c.JSON(http.StatusOK, view)
	}
}

func allTasks(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		all := svc.All()
		metricsFrom(c).SetTasksReturned(len(all))
		return c.JSON(http.StatusOK, all)
	}
}

func getTask(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		t, ok := svc.Get(c.Param("id"))
		if !ok {
			return c.String(http.StatusNotFound, "task not found")
		}
		return c.JSON(http.StatusOK, t)
	}
}

func createTask(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		metrics := metricsFrom(c)
		var req taskRequest
		if ok, err := decodeTaskRequest(c, &req); !ok {
			return err
		}
		fields, err := req.fields(svc.Categories())
		if err != nil {
			metrics.SetErrorStage("validation")
			return c.String(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusCreated, svc.Create(fields))
	}
}

func updateTask(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		metrics := metricsFrom(c)
		var req taskRequest
		if ok, err := decodeTaskRequest(c, &req); !ok {
			return err
		}
		patch, err := req.patch(svc.Categories())
		if err != nil {
			metrics.SetErrorStage("validation")
			return c.String(http.StatusBadRequest, err.Error())
		}
		t, ok := svc.Update(c.Param("id"), patch)
		if !ok {
			return c.String(http.StatusNotFound, "task not found")
		}
		return c.JSON(http.StatusOK, t)
	}
}

// deleteTask answers 204 whether or not the task existed.
func deleteTask(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		svc.Delete(c.Param("id"))
		return c.NoContent(http.StatusNoContent)
	}
}

func toggleTask(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		t, ok := svc.Toggle(c.Param("id"))
		if !ok {
			return c.String(http.StatusNotFound, "task not found")
		}
		return c.JSON(http.StatusOK, t)
	}
}

func getStats(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, svc.Stats())
	}
}

func getInsights(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, svc.Insights())
	}
}

func getCategories(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, svc.Categories())
	}
}

func getPriorities(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, svc.Priorities())
	}
}

func exportData(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := svc.Snapshot()
		metricsFrom(c).SetTasksReturned(len(snap.Tasks))
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="todos-export.json"`)
		return c.JSON(http.StatusOK, snap)
	}
}

func clearData(svc Service, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := svc.ClearAll(c.Request().Context()); err != nil {
			metricsFrom(c).SetErrorStage("clear")
			if ctxErr := c.Request().Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return c.String(http.StatusServiceUnavailable, "clear interrupted")
			}
			logger.WithError(err).Error("clear all data failed")
			return c.String(http.StatusInternalServerError, "failed to clear data")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func healthz(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := healthResponse{Status: "ok", Loading: svc.Loading(), Writer: svc.WriterStats()}
		if resp.Loading {
			resp.Status = "loading"
		}
		return c.JSON(http.StatusOK, resp)
	}
}
