package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/core/ports/driving"
)

// blockingIngestor lets tests hold a task in the processing state.
type blockingIngestor struct {
	mu      sync.Mutex
	started chan string
	release chan struct{}
	results map[string]domain.IngestResult
	runs    []string
}

func newBlockingIngestor() *blockingIngestor {
	return &blockingIngestor{
		started: make(chan string, 16),
		release: make(chan struct{}),
		results: make(map[string]domain.IngestResult),
	}
}

func (b *blockingIngestor) Ingest(_ context.Context, paperID, _ string, onProgress driving.ProgressFunc) (domain.IngestResult, error) {
	b.mu.Lock()
	b.runs = append(b.runs, paperID)
	result, ok := b.results[paperID]
	b.mu.Unlock()

	if onProgress != nil {
		onProgress(domain.StageDownloading, 10)
		onProgress(domain.StageExtracting, 25)
	}

	b.started <- paperID
	<-b.release

	if !ok {
		result = domain.IngestResult{Success: true, PaperID: paperID}
	}
	return result, nil
}

func (b *blockingIngestor) IsIngested(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (b *blockingIngestor) ranPapers() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.runs...)
}

func stopQueue(t *testing.T, q *TaskQueueService) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Stop(ctx))
}

func TestEnqueue_ProcessesTask(t *testing.T) {
	ingestor := newBlockingIngestor()
	close(ingestor.release)
	queue := NewTaskQueue(ingestor, 0, TaskEvents{})

	task, err := queue.Enqueue(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, domain.TaskQueued, task.Status)

	stopQueue(t, queue)

	final, ok := queue.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, domain.TaskCompleted, final.Status)
	assert.Equal(t, 100, final.Progress)
	assert.False(t, final.FinishedAt.IsZero())
}

func TestEnqueue_IdempotentWhileActive(t *testing.T) {
	ingestor := newBlockingIngestor()
	queue := NewTaskQueue(ingestor, 0, TaskEvents{})

	first, err := queue.Enqueue(context.Background(), "p1", "")
	require.NoError(t, err)

	// Wait until the worker holds the task in processing.
	<-ingestor.started

	second, err := queue.Enqueue(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	close(ingestor.release)
	stopQueue(t, queue)

	// Only one actual ingestion ran.
	assert.Equal(t, []string{"p1"}, ingestor.ranPapers())
}

func TestEnqueue_NewTaskAfterCompletion(t *testing.T) {
	ingestor := newBlockingIngestor()
	close(ingestor.release)
	queue := NewTaskQueue(ingestor, 0, TaskEvents{})

	first, err := queue.Enqueue(context.Background(), "p1", "")
	require.NoError(t, err)

	// Wait for the first task to finish.
	require.Eventually(t, func() bool {
		task, ok := queue.Get(first.ID)
		return ok && task.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	second, err := queue.Enqueue(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	stopQueue(t, queue)
}

func TestWorker_FIFOOrder(t *testing.T) {
	ingestor := newBlockingIngestor()
	queue := NewTaskQueue(ingestor, 0, TaskEvents{})

	for _, id := range []string{"a", "b", "c"} {
		_, err := queue.Enqueue(context.Background(), id, "")
		require.NoError(t, err)
	}

	close(ingestor.release)
	stopQueue(t, queue)

	assert.Equal(t, []string{"a", "b", "c"}, ingestor.ranPapers())
}

func TestWorker_ProgressFollowsPipelineStages(t *testing.T) {
	ingestor := newBlockingIngestor()
	close(ingestor.release)

	var mu sync.Mutex
	var stages []string
	var percents []int
	queue := NewTaskQueue(ingestor, 0, TaskEvents{
		OnProgress: func(task domain.IngestTask) {
			mu.Lock()
			stages = append(stages, task.Stage)
			percents = append(percents, task.Progress)
			mu.Unlock()
		},
	})

	_, err := queue.Enqueue(context.Background(), "p1", "")
	require.NoError(t, err)

	stopQueue(t, queue)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{domain.StageDownloading, domain.StageExtracting}, stages)
	assert.Equal(t, []int{10, 25}, percents)
}

func TestWorker_FailedIngestMarksError(t *testing.T) {
	ingestor := newBlockingIngestor()
	ingestor.results["bad"] = domain.IngestResult{
		Success: false,
		PaperID: "bad",
		Stage:   domain.StageExtracting,
		Error:   "no text",
	}
	close(ingestor.release)

	var errored []string
	var mu sync.Mutex
	queue := NewTaskQueue(ingestor, 0, TaskEvents{
		OnError: func(task domain.IngestTask) {
			mu.Lock()
			errored = append(errored, task.PaperID)
			mu.Unlock()
		},
	})

	task, err := queue.Enqueue(context.Background(), "bad", "")
	require.NoError(t, err)

	stopQueue(t, queue)

	final, ok := queue.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, domain.TaskError, final.Status)
	assert.Equal(t, domain.StageExtracting, final.Stage)
	assert.Equal(t, "no text", final.Error)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"bad"}, errored)
}

func TestWorker_CallbackPanicRecovered(t *testing.T) {
	ingestor := newBlockingIngestor()
	close(ingestor.release)

	queue := NewTaskQueue(ingestor, 0, TaskEvents{
		OnComplete: func(domain.IngestTask) { panic("boom") },
	})

	task, err := queue.Enqueue(context.Background(), "p1", "")
	require.NoError(t, err)

	stopQueue(t, queue)

	final, ok := queue.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, domain.TaskCompleted, final.Status)
}

func TestEnqueue_AfterStopFails(t *testing.T) {
	ingestor := newBlockingIngestor()
	close(ingestor.release)
	queue := NewTaskQueue(ingestor, 0, TaskEvents{})
	stopQueue(t, queue)

	_, err := queue.Enqueue(context.Background(), "p1", "")
	assert.ErrorIs(t, err, domain.ErrQueueClosed)
}

func TestCleanup_PurgesOldTerminalTasks(t *testing.T) {
	ingestor := newBlockingIngestor()
	close(ingestor.release)
	queue := NewTaskQueue(ingestor, 0, TaskEvents{})

	task, err := queue.Enqueue(context.Background(), "p1", "")
	require.NoError(t, err)
	stopQueue(t, queue)

	// Still inside the retention window.
	assert.Equal(t, 0, queue.Cleanup(time.Hour))
	_, ok := queue.Get(task.ID)
	assert.True(t, ok)

	// Shrink the window until the task ages out.
	assert.Equal(t, 1, queue.Cleanup(time.Nanosecond))
	_, ok = queue.Get(task.ID)
	assert.False(t, ok)
}

func TestList_NewestFirst(t *testing.T) {
	ingestor := newBlockingIngestor()
	close(ingestor.release)
	queue := NewTaskQueue(ingestor, 0, TaskEvents{})

	_, err := queue.Enqueue(context.Background(), "a", "")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = queue.Enqueue(context.Background(), "b", "")
	require.NoError(t, err)

	stopQueue(t, queue)

	tasks := queue.List()
	require.Len(t, tasks, 2)
	assert.Equal(t, "b", tasks[0].PaperID)
	assert.Equal(t, "a", tasks[1].PaperID)
}
