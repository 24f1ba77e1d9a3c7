package tasks

import (
	"context"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"prism-todo/domain"
)

// Store persists whole snapshots of the task and category lists. Reads and
// writes report failures through logging only.
type Store interface {
	ReadTasks(ctx context.Context) []domain.Task
	WriteTasks(ctx context.Context, tasks []domain.Task)
	ReadCategories(ctx context.Context) []domain.Category
	WriteCategories(ctx context.Context, categories []domain.Category)
	Clear(ctx context.Context) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the time source used for timestamps, ids and overdue checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithWriterConfig tunes the background snapshot writer.
func WithWriterConfig(cfg WriterConfig) Option {
	return func(m *Manager) { m.writerCfg = cfg }
}

// Manager owns the in-memory task list for a session. The list is the source
// of truth; every mutation enqueues a full snapshot for the background writer.
type Manager struct {
	store     Store
	logger    *log.Logger
	now       func() time.Time
	writerCfg WriterConfig
	writer    *writer

	mu          sync.Mutex
	tasks       []domain.Task
	categories  []domain.Category
	filter      domain.Filter
	query       string
	loading     bool
	loadStarted bool
	lastID      int64
}

// View is a consistent read of the derived task list and the state it was
// derived from.
type View struct {
	Tasks   []domain.Task `json:"tasks"`
	Filter  domain.Filter `json:"filter"`
	Query   string        `json:"query"`
	Loading bool          `json:"loading"`
}

// Export is a point-in-time copy of everything the manager holds.
type Export struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Tasks      []domain.Task     `json:"tasks"`
	Categories []domain.Category `json:"categories"`
	Priorities []domain.Priority `json:"priorities"`
	Stats      domain.Stats      `json:"stats"`
}

// New creates a Manager in the loading state and starts its writer. Call Load
// once to hydrate it and Close to stop the writer.
func New(store Store, logger *log.Logger, opts ...Option) *Manager {
	if store == nil {
		panic("tasks.New: store is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	m := &Manager{
		store:      store,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		writerCfg:  DefaultWriterConfig(),
		tasks:      []domain.Task{},
		categories: []domain.Category{},
		filter:     domain.FilterAll,
		loading:    true,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.writer = newWriter(store, logger, m.writerCfg)
	return m
}

// Load hydrates the manager from the store. Only the first call has an
// effect. Unreadable data falls back to an empty task list and the default
// categories; the loaded snapshot is not written back.
func (m *Manager) Load(ctx context.Context) {
	m.mu.Lock()
	if m.loadStarted {
		m.mu.Unlock()
		return
	}
	m.loadStarted = true
	m.mu.Unlock()

	tasks := uniqueTasks(m.store.ReadTasks(ctx), m.logger)
	categories := m.store.ReadCategories(ctx)
	seeded := len(categories) == 0
	if seeded {
		categories = domain.DefaultCategories()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = tasks
	m.categories = categories
	m.loading = false
	if seeded {
		m.writer.enqueue(writeJob{kind: jobCategories, categories: append([]domain.Category(nil), categories...)})
	}
	m.logger.WithFields(log.Fields{"tasks": len(tasks), "categories": len(categories), "seeded": seeded}).Info("task list loaded")
}

// Create prepends a new task and returns it. Title validation is the
// caller's job.
func (m *Manager) Create(f domain.TaskFields) domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	t := domain.Task{
		ID:          m.nextIDLocked(now),
		Title:       f.Title,
		Description: f.Description,
		Completed:   f.Completed,
		Category:    f.Category,
		Priority:    f.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if f.DueDate != nil {
		due := *f.DueDate
		t.DueDate = &due
	}

	tasks := make([]domain.Task, 0, len(m.tasks)+1)
	tasks = append(tasks, t)
	m.tasks = append(tasks, m.tasks...)
	m.persistLocked()
	m.logger.WithField("task", t.ID).Debug("task created")
	return t.Clone()
}

// Update merges patch into the task with id. It reports false, and changes
// nothing, when no such task exists.
func (m *Manager) Update(id string, patch domain.TaskPatch) (domain.Task, bool) {
	return m.replace(id, func(t domain.Task) domain.Task {
		return patch.Apply(t)
	})
}

// Toggle flips the completed flag of the task with id.
func (m *Manager) Toggle(id string) (domain.Task, bool) {
	return m.replace(id, func(t domain.Task) domain.Task {
		t.Completed = !t.Completed
		return t
	})
}

// Delete removes the task with id. It reports whether a task was removed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return false
	}
	tasks := make([]domain.Task, 0, len(m.tasks)-1)
	tasks = append(tasks, m.tasks[:i]...)
	m.tasks = append(tasks, m.tasks[i+1:]...)
	m.persistLocked()
	m.logger.WithField("task", id).Debug("task deleted")
	return true
}

func (m *Manager) replace(id string, fn func(domain.Task) domain.Task) (domain.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return domain.Task{}, false
	}
	old := m.tasks[i]
	t := fn(old.Clone())
	t.ID = old.ID
	t.CreatedAt = old.CreatedAt
	t.UpdatedAt = m.touch(old)

	tasks := make([]domain.Task, len(m.tasks))
	copy(tasks, m.tasks)
	tasks[i] = t
	m.tasks = tasks
	m.persistLocked()
	return t.Clone(), true
}

// SetFilter changes the filter mode of the derived view.
func (m *Manager) SetFilter(f domain.Filter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = f
}

// SetSearchQuery changes the search text of the derived view.
func (m *Manager) SetSearchQuery(q string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.query = q
}

func (m *Manager) Filter() domain.Filter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter
}

func (m *Manager) SearchQuery() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.query
}

func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Filtered returns the tasks matching the current filter and search text.
func (m *Manager) Filtered() []domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.FilterTasks(m.tasks, m.filter, m.query)
}

// View returns the filtered tasks together with the filter state.
func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return View{
		Tasks:   domain.FilterTasks(m.tasks, m.filter, m.query),
		Filter:  m.filter,
		Query:   m.query,
		Loading: m.loading,
	}
}

// All returns the full, unfiltered task list, newest first.
func (m *Manager) All() []domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CloneTasks(m.tasks)
}

// Get returns the task with id.
func (m *Manager) Get(id string) (domain.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return domain.Task{}, false
	}
	return m.tasks[i].Clone(), true
}

func (m *Manager) Categories() []domain.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Category{}, m.categories...)
}

func (m *Manager) Priorities() []domain.Priority {
	return domain.Priorities()
}

// Stats counts the full task list.
func (m *Manager) Stats() domain.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.ComputeStats(m.tasks, m.now())
}

// Insights returns the statistics view: counts, completion rate, recent
// activity and the per-category breakdown.
func (m *Manager) Insights() domain.Insights {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.ComputeInsights(m.categories, m.tasks, m.now())
}

// Snapshot returns a copy of all data for export.
func (m *Manager) Snapshot() Export {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	return Export{
		ExportedAt: now,
		Tasks:      domain.CloneTasks(m.tasks),
		Categories: append([]domain.Category{}, m.categories...),
		Priorities: domain.Priorities(),
		Stats:      domain.ComputeStats(m.tasks, now),
	}
}

// ClearAll removes both persisted documents and resets the session to an
// empty task list with the default categories. Queued snapshots are flushed
// first so none of them recreates the data afterwards.
func (m *Manager) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writer.flush(ctx); err != nil {
		return err
	}
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.tasks = []domain.Task{}
	m.categories = domain.DefaultCategories()
	m.logger.Info("all task data cleared")
	return nil
}

// Flush waits until every snapshot enqueued so far has been written.
func (m *Manager) Flush(ctx context.Context) error {
	return m.writer.flush(ctx)
}

// Close drains the snapshot queue and stops the writer. Mutations after
// Close are persisted synchronously.
func (m *Manager) Close(ctx context.Context) error {
	return m.writer.close(ctx)
}

// WriterStats reports the writer's queue depth and completed writes.
func (m *Manager) WriterStats() WriterStats {
	return m.writer.stats()
}

func (m *Manager) persistLocked() {
	if m.loading {
		m.logger.Debug("skipping snapshot write while loading")
		return
	}
	m.writer.enqueue(writeJob{kind: jobTasks, tasks: domain.CloneTasks(m.tasks)})
}

func (m *Manager) indexLocked(id string) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// nextIDLocked derives an id from the clock, bumped past the last id handed
// out and past any id already in the list.
func (m *Manager) nextIDLocked(now time.Time) string {
	n := now.UnixNano()
	if n <= m.lastID {
		n = m.lastID + 1
	}
	for m.indexLocked(strconv.FormatInt(n, 10)) >= 0 {
		n++
	}
	m.lastID = n
	return strconv.FormatInt(n, 10)
}

// touch returns the refreshed UpdatedAt for t. It never goes back in time.
func (m *Manager) touch(t domain.Task) time.Time {
	now := m.now()
	if now.Before(t.UpdatedAt) {
		now = t.UpdatedAt
	}
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	return now
}

// uniqueTasks drops later duplicates of an id from a loaded list.
func uniqueTasks(tasks []domain.Task, logger *log.Logger) []domain.Task {
	seen := make(map[string]struct{}, len(tasks))
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.ID]; dup {
			logger.WithField("task", t.ID).Warn("dropping duplicate task id from stored list")
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}
