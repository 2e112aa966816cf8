package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/core/ports/driving"
	"github.com/custodia-labs/paperag/internal/logger"
)

// Ensure TaskQueueService implements the interface.
var _ driving.TaskQueue = (*TaskQueueService)(nil)

// DefaultQueueCapacity bounds how many ingestions can wait at once.
const DefaultQueueCapacity = 100

// TaskEvents are optional callbacks invoked synchronously from the
// worker goroutine as tasks move through their lifecycle. A panicking
// callback is recovered and logged; it never kills the worker.
type TaskEvents struct {
	OnStart    func(task domain.IngestTask)
	OnProgress func(task domain.IngestTask)
	OnComplete func(task domain.IngestTask)
	OnError    func(task domain.IngestTask)
}

// TaskQueueService runs paper ingestions on a single background
// worker. Tasks are processed strictly in FIFO order; the channel is
// the queue, so there is no polling loop.
type TaskQueueService struct {
	ingestor driving.Ingestor
	events   TaskEvents

	mu     sync.Mutex
	tasks  map[string]*domain.IngestTask
	closed bool

	queue chan string
	done  chan struct{}
}

// NewTaskQueue creates the queue and starts its worker goroutine.
// A capacity of 0 uses DefaultQueueCapacity.
func NewTaskQueue(ingestor driving.Ingestor, capacity int, events TaskEvents) *TaskQueueService {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}

	s := &TaskQueueService{
		ingestor: ingestor,
		events:   events,
		tasks:    make(map[string]*domain.IngestTask),
		queue:    make(chan string, capacity),
		done:     make(chan struct{}),
	}

	go s.run()
	return s
}

// Enqueue schedules an ingestion for a paper. While a task for the
// same paper is queued or processing, the existing task is returned
// instead of creating a duplicate.
func (s *TaskQueueService) Enqueue(ctx context.Context, paperID, locator string) (*domain.IngestTask, error) {
	if paperID == "" {
		return nil, fmt.Errorf("paper id is empty: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrQueueClosed
	}

	if active := s.activeTaskLocked(paperID); active != nil {
		logger.Debug("Paper %s already %s as task %s", paperID, active.Status, active.ID)
		return snapshot(active), nil
	}

	task := &domain.IngestTask{
		ID:       uuid.NewString(),
		PaperID:  paperID,
		Locator:  locator,
		Status:   domain.TaskQueued,
		Stage:    domain.StageQueued,
		QueuedAt: time.Now(),
	}

	select {
	case s.queue <- task.ID:
	default:
		return nil, fmt.Errorf("task queue is full (capacity %d)", cap(s.queue))
	}

	s.tasks[task.ID] = task
	logger.Info("Queued ingestion of %s as task %s", paperID, task.ID)
	return snapshot(task), nil
}

// Get returns a task by ID.
func (s *TaskQueueService) Get(id string) (*domain.IngestTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	return snapshot(task), true
}

// GetByPaper returns the most recent task for a paper.
func (s *TaskQueueService) GetByPaper(paperID string) (*domain.IngestTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *domain.IngestTask
	for _, task := range s.tasks {
		if task.PaperID != paperID {
			continue
		}
		if latest == nil || task.QueuedAt.After(latest.QueuedAt) {
			latest = task
		}
	}
	if latest == nil {
		return nil, false
	}
	return snapshot(latest), true
}

// List returns all known tasks, newest first.
func (s *TaskQueueService) List() []*domain.IngestTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.IngestTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, snapshot(task))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].QueuedAt.After(out[j].QueuedAt)
	})
	return out
}

// Cleanup removes terminal tasks older than the retention window and
// returns how many were removed.
func (s *TaskQueueService) Cleanup(retention time.Duration) int {
	if retention <= 0 {
		retention = domain.DefaultTaskRetention
	}
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, task := range s.tasks {
		if task.Status.Terminal() && task.FinishedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	if removed > 0 {
		logger.Debug("Cleaned up %d finished tasks", removed)
	}
	return removed
}

// Stop stops accepting work, lets any in-flight task finish and joins
// the worker. The join is bounded by ctx; on timeout the worker keeps
// draining in the background.
func (s *TaskQueueService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the worker loop. It exits when the queue channel is closed
// and drained.
func (s *TaskQueueService) run() {
	defer close(s.done)

	for id := range s.queue {
		s.process(id)
	}
}

// process executes a single queued task.
func (s *TaskQueueService) process(id string) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	if !ok || !task.Status.CanTransition(domain.TaskProcessing) {
		s.mu.Unlock()
		return
	}
	task.Status = domain.TaskProcessing
	task.StartedAt = time.Now()
	paperID, locator := task.PaperID, task.Locator
	s.mu.Unlock()

	s.emit(s.events.OnStart, id)

	// Stage checkpoints arrive from inside the pipeline so progress
	// reflects what is actually running.
	progress := func(stage string, percent int) {
		s.mu.Lock()
		task.Stage = stage
		task.Progress = percent
		s.mu.Unlock()
		s.emit(s.events.OnProgress, id)
	}

	result, err := s.ingestor.Ingest(context.Background(), paperID, locator, progress)

	s.mu.Lock()
	switch {
	case err != nil:
		task.Status = domain.TaskError
		task.Stage = domain.StageFailed
		task.Error = err.Error()
	case !result.Success:
		task.Status = domain.TaskError
		task.Stage = result.Stage
		task.Error = result.Error
	default:
		task.Status = domain.TaskCompleted
		task.Stage = domain.StageCompleted
		task.Progress = 100
		task.Cached = result.Cached
	}
	task.FinishedAt = time.Now()
	failed := task.Status == domain.TaskError
	s.mu.Unlock()

	if failed {
		s.emit(s.events.OnError, id)
	} else {
		s.emit(s.events.OnComplete, id)
	}
}

// activeTaskLocked returns the paper's queued or processing task, if
// any. Caller must hold mu.
func (s *TaskQueueService) activeTaskLocked(paperID string) *domain.IngestTask {
	for _, task := range s.tasks {
		if task.PaperID == paperID && !task.Status.Terminal() {
			return task
		}
	}
	return nil
}

// emit invokes a lifecycle callback with a snapshot of the task,
// recovering panics so the worker survives a broken callback.
func (s *TaskQueueService) emit(fn func(domain.IngestTask), id string) {
	if fn == nil {
		return
	}

	s.mu.Lock()
	task, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	copied := *task
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Task callback panicked: %v", r)
		}
	}()
	fn(copied)
}

// snapshot copies a task so callers cannot mutate queue state.
func snapshot(task *domain.IngestTask) *domain.IngestTask {
	copied := *task
	return &copied
}
