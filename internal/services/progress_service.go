// internal/services/progress_service.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Tracker states.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ProgressUpdate is one message sent to subscribers.
type ProgressUpdate struct {
	Progress int    `json:"progress"` // 0-100
	Message  string `json:"message"`
	Status   string `json:"status"`
	// Warning is set when the pipeline switched to the speech-to-text fallback.
	Warning string `json:"warning,omitempty"`
}

// ProgressTracker follows one pipeline run.
type ProgressTracker struct {
	TaskID     string
	Progress   int
	Message    string
	Status     string
	Warning    string
	StartTime  time.Time
	UpdateTime time.Time
	// Done is closed when the run completes or fails.
	Done chan struct{}

	subscribers map[chan ProgressUpdate]bool
	mutex       sync.Mutex
}

// ProgressService keeps the trackers of running and recently finished runs.
type ProgressService struct {
	trackers map[string]*ProgressTracker
	mutex    sync.RWMutex
}

func NewProgressService() *ProgressService {
	return &ProgressService{
		trackers: make(map[string]*ProgressTracker),
	}
}

// CreateTracker returns the tracker of taskID, creating it when needed.
func (s *ProgressService) CreateTracker(taskID string) *ProgressTracker {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if tracker, exists := s.trackers[taskID]; exists {
		return tracker
	}

	now := time.Now()
	tracker := &ProgressTracker{
		TaskID:      taskID,
		Message:     "Starting...",
		Status:      StatusRunning,
		StartTime:   now,
		UpdateTime:  now,
		Done:        make(chan struct{}),
		subscribers: make(map[chan ProgressUpdate]bool),
	}
	s.trackers[taskID] = tracker
	return tracker
}

func (s *ProgressService) GetTracker(taskID string) (*ProgressTracker, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	tracker, exists := s.trackers[taskID]
	return tracker, exists
}

// UpdateProgress moves the tracker forward. Progress never goes backwards.
func (t *ProgressTracker) UpdateProgress(progress int, message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.Status != StatusRunning {
		return
	}
	if progress > t.Progress {
		t.Progress = min(progress, 99)
	}
	if message != "" {
		t.Message = message
	}
	t.UpdateTime = time.Now()
	t.broadcast()
}

// Warn records a warning that stays attached to the run.
func (t *ProgressTracker) Warn(message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.Warning = message
	t.UpdateTime = time.Now()
	t.broadcast()
}

// Complete marks the run finished. Later calls are ignored.
func (t *ProgressTracker) Complete(message string) {
	t.finish(StatusCompleted, message)
}

// Fail marks the run failed. Later calls are ignored.
func (t *ProgressTracker) Fail(errorMsg string) {
	t.finish(StatusFailed, fmt.Sprintf("Failed: %s", errorMsg))
}

func (t *ProgressTracker) finish(status, message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.Status != StatusRunning {
		return
	}
	if status == StatusCompleted {
		t.Progress = 100
		if message == "" {
			message = "Done"
		}
	}
	t.Message = message
	t.Status = status
	t.UpdateTime = time.Now()
	t.broadcast()
	close(t.Done)
}

// Snapshot returns the current state.
func (t *ProgressTracker) Snapshot() ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.current()
}

func (t *ProgressTracker) current() ProgressUpdate {
	return ProgressUpdate{
		Progress: t.Progress,
		Message:  t.Message,
		Status:   t.Status,
		Warning:  t.Warning,
	}
}

// broadcast sends without blocking; a full subscriber misses the update.
// Callers hold the mutex.
func (t *ProgressTracker) broadcast() {
	update := t.current()
	for subscriber := range t.subscribers {
		select {
		case subscriber <- update:
		default:
		}
	}
}

// Subscribe returns a channel that first receives the current state.
func (t *ProgressTracker) Subscribe() chan ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	subscriber := make(chan ProgressUpdate, 10)
	t.subscribers[subscriber] = true
	subscriber <- t.current()
	return subscriber
}

func (t *ProgressTracker) Unsubscribe(subscriber chan ProgressUpdate) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.subscribers[subscriber] {
		delete(t.subscribers, subscriber)
		close(subscriber)
	}
}

// CleanupCompletedTasks drops trackers idle for longer than maxAge. A running
// tracker is only dropped once nobody is subscribed to it, which covers runs
// that were never submitted.
func (s *ProgressService) CleanupCompletedTasks(maxAge time.Duration) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	now := time.Now()
	for id, tracker := range s.trackers {
		tracker.mutex.Lock()
		finished := tracker.Status != StatusRunning
		abandoned := len(tracker.subscribers) == 0
		isOld := now.Sub(tracker.UpdateTime) > maxAge
		tracker.mutex.Unlock()

		if (finished || abandoned) && isOld {
			delete(s.trackers, id)
			removed++
		}
	}
	return removed
}

// StartCleanup runs CleanupCompletedTasks every interval until ctx ends.
func (s *ProgressService) StartCleanup(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupCompletedTasks(maxAge)
			}
		}
	}()
}
