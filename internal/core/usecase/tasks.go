package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/medwise/medwise-backend/internal/core/ports"
)

var ErrTrackerClosed = errors.New("analysis tracker is shut down")

// AnalysisTask is the handle of one in-process analyze run.
type AnalysisTask struct {
	ImageID string

	done chan struct{}
	err  error
}

func (t *AnalysisTask) Done() <-chan struct{} {
	return t.done
}

// Err is valid after Done is closed.
func (t *AnalysisTask) Err() error {
	<-t.done
	return t.err
}

// TaskTracker runs analyses on goroutines tied to the process lifetime rather
// than to the request that scheduled them. It does not bound concurrency.
type TaskTracker struct {
	analyzer ports.ImageAnalyzer
	baseCtx  context.Context

	mu     sync.Mutex
	tasks  map[string]*AnalysisTask
	wg     sync.WaitGroup
	closed bool
}

func NewTaskTracker(baseCtx context.Context, analyzer ports.ImageAnalyzer) *TaskTracker {
	return &TaskTracker{
		analyzer: analyzer,
		baseCtx:  context.WithoutCancel(baseCtx),
		tasks:    make(map[string]*AnalysisTask),
	}
}

// Dispatch implements ports.AnalysisDispatcher.
func (t *TaskTracker) Dispatch(_ context.Context, imageID string) error {
	_, err := t.Start(imageID)
	return err
}

// Start launches the analyze phase and returns its handle. Starting an image
// that already has a running task returns the existing handle.
func (t *TaskTracker) Start(imageID string) (*AnalysisTask, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTrackerClosed
	}
	if task, ok := t.tasks[imageID]; ok {
		return task, nil
	}

	task := &AnalysisTask{ImageID: imageID, done: make(chan struct{})}
	t.tasks[imageID] = task
	t.wg.Add(1)
	go t.run(task)
	return task, nil
}

func (t *TaskTracker) run(task *AnalysisTask) {
	defer t.wg.Done()
	defer func() {
		t.mu.Lock()
		delete(t.tasks, task.ImageID)
		t.mu.Unlock()
		close(task.done)
	}()

	if err := t.analyzer.Analyze(t.baseCtx, task.ImageID); err != nil {
		task.err = err
		slog.Error("analysis_task_error", "image_id", task.ImageID, "error", err)
	}
}

// Task returns the handle of a running analysis.
func (t *TaskTracker) Task(imageID string) (*AnalysisTask, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, ok := t.tasks[imageID]
	return task, ok
}

// Wait blocks until the analysis of imageID has finished. Unknown ids are
// treated as already finished.
func (t *TaskTracker) Wait(ctx context.Context, imageID string) error {
	task, ok := t.Task(imageID)
	if !ok {
		return nil
	}
	select {
	case <-task.Done():
		return task.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InFlight reports the number of running analyses.
func (t *TaskTracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tasks)
}

// Shutdown stops accepting work and waits for running analyses.
func (t *TaskTracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
