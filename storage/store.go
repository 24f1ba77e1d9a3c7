package storage

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"prism-todo/domain"
)

// Keys of the two persisted documents.
const (
	TasksKey      = "@todos"
	CategoriesKey = "@categories"
)

const tracerName = "prism-todo/storage"

// Store persists the task list and the category list as whole JSON documents.
// Reads and writes never return errors: failures are logged and reads fall
// back to an empty list.
type Store struct {
	backend Backend
	logger  *log.Logger
}

// NewStore creates a Store on top of the given backend.
func NewStore(backend Backend, logger *log.Logger) *Store {
	if backend == nil {
		panic("storage.NewStore: backend is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{backend: backend, logger: logger}
}

// ReadTasks returns the persisted tasks, or an empty list when nothing is
// stored or the document cannot be decoded.
func (s *Store) ReadTasks(ctx context.Context) []domain.Task {
	ctx, span := startSpan(ctx, "storage.read_tasks", TasksKey)
	defer span.End()

	tasks := []domain.Task{}
	if !s.read(ctx, span, TasksKey, &tasks) || tasks == nil {
		return []domain.Task{}
	}
	span.SetAttributes(attribute.Int("prism.store.items", len(tasks)))
	return tasks
}

// WriteTasks replaces the persisted task document with the entire list.
func (s *Store) WriteTasks(ctx context.Context, tasks []domain.Task) {
	ctx, span := startSpan(ctx, "storage.write_tasks", TasksKey)
	defer span.End()

	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		out[i] = normalizeTimes(t)
	}
	span.SetAttributes(attribute.Int("prism.store.items", len(out)))
	s.write(ctx, span, TasksKey, out)
}

// ReadCategories returns the persisted categories, or an empty list.
func (s *Store) ReadCategories(ctx context.Context) []domain.Category {
	ctx, span := startSpan(ctx, "storage.read_categories", CategoriesKey)
	defer span.End()

	categories := []domain.Category{}
	if !s.read(ctx, span, CategoriesKey, &categories) || categories == nil {
		return []domain.Category{}
	}
	span.SetAttributes(attribute.Int("prism.store.items", len(categories)))
	return categories
}

// WriteCategories replaces the persisted category document.
func (s *Store) WriteCategories(ctx context.Context, categories []domain.Category) {
	ctx, span := startSpan(ctx, "storage.write_categories", CategoriesKey)
	defer span.End()

	if categories == nil {
		categories = []domain.Category{}
	}
	span.SetAttributes(attribute.Int("prism.store.items", len(categories)))
	s.write(ctx, span, CategoriesKey, categories)
}

// Clear removes both documents. Unlike reads and writes the error is returned.
func (s *Store) Clear(ctx context.Context) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "storage.clear")
	defer span.End()

	if err := s.backend.Del(ctx, TasksKey, CategoriesKey); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.WithError(err).Error("failed to clear stored documents")
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *Store) read(ctx context.Context, span trace.Span, key string, v any) bool {
	data, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			span.SetAttributes(attribute.Bool("prism.store.found", false))
			span.SetStatus(codes.Ok, "")
			return false
		}
		s.fail(span, err, key, "failed to read stored document")
		return false
	}
	span.SetAttributes(attribute.Bool("prism.store.found", true))
	if len(data) == 0 {
		span.SetStatus(codes.Ok, "")
		return false
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		s.fail(span, err, key, "failed to decode stored document")
		return false
	}
	span.SetStatus(codes.Ok, "")
	return true
}

func (s *Store) write(ctx context.Context, span trace.Span, key string, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		s.fail(span, err, key, "failed to encode document")
		return
	}
	if err := s.backend.Set(ctx, key, data); err != nil {
		s.fail(span, err, key, "failed to write document")
		return
	}
	span.SetAttributes(attribute.Int("prism.store.bytes", len(data)))
	span.SetStatus(codes.Ok, "")
}

func (s *Store) fail(span trace.Span, err error, key, msg string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.WithError(err).WithField("key", key).Error(msg)
}

func startSpan(ctx context.Context, name, key string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attribute.String("prism.store.key", key)))
}

// normalizeTimes stores every timestamp in UTC so the serialized form sorts
// the same way the times do.
func normalizeTimes(t domain.Task) domain.Task {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		t.DueDate = &due
	}
	return t
}
