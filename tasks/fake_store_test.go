package tasks

import (
	"context"
	"sync"

	"prism-todo/domain"
)

// recordingStore keeps every snapshot it is asked to write.
type recordingStore struct {
	mu             sync.Mutex
	tasks          []domain.Task
	categories     []domain.Category
	taskWrites     [][]domain.Task
	categoryWrites [][]domain.Category
	taskReads      int
	clears         int
	clearErr       error
	// gate, when set, holds every task write until it is closed.
	gate chan struct{}
}

func (s *recordingStore) ReadTasks(context.Context) []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskReads++
	return domain.CloneTasks(s.tasks)
}

func (s *recordingStore) WriteTasks(_ context.Context, tasks []domain.Task) {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskWrites = append(s.taskWrites, domain.CloneTasks(tasks))
	s.tasks = domain.CloneTasks(tasks)
}

func (s *recordingStore) ReadCategories(context.Context) []domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Category{}, s.categories...)
}

func (s *recordingStore) WriteCategories(_ context.Context, categories []domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categoryWrites = append(s.categoryWrites, append([]domain.Category(nil), categories...))
	s.categories = append([]domain.Category(nil), categories...)
}

func (s *recordingStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearErr != nil {
		return s.clearErr
	}
	s.clears++
	s.tasks = nil
	s.categories = nil
	return nil
}

func (s *recordingStore) writes() [][]domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]domain.Task(nil), s.taskWrites...)
}

func (s *recordingStore) catWrites() [][]domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]domain.Category(nil), s.categoryWrites...)
}
