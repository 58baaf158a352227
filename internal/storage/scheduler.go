package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// UpdateFunc performs one scheduled maintenance run, typically fetching new
// draws and refreshing the database.
type UpdateFunc func(ctx context.Context) error

// UpdateScheduler runs a maintenance function on a fixed interval. It is
// used for periodic draw updates and scheduled backups.
type UpdateScheduler struct {
	update       UpdateFunc
	config       *SchedulerConfig
	ticker       *time.Ticker
	stopChan     chan struct{}
	mu           sync.RWMutex
	running      bool
	lastRun      time.Time
	lastError    error
	runCount     int
	failureCount int
}

// SchedulerConfig holds configuration for the update scheduler.
type SchedulerConfig struct {
	// Interval is how often to run. Daily suits the Powerball draw cadence
	// since at most one draw lands per day.
	Interval time.Duration

	// RunImmediately triggers a run as soon as the scheduler starts.
	RunImmediately bool

	// Timeout bounds each run. Zero means no deadline.
	Timeout time.Duration

	// OnComplete is called after every run, success or failure.
	OnComplete func(err error)
}

// DefaultSchedulerConfig returns a scheduler config with daily runs.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Interval: 24 * time.Hour,
		Timeout:  5 * time.Minute,
	}
}

// NewUpdateScheduler creates a scheduler around the given update function.
func NewUpdateScheduler(update UpdateFunc, config *SchedulerConfig) *UpdateScheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	return &UpdateScheduler{
		update:   update,
		config:   config,
		stopChan: make(chan struct{}),
	}
}

// Start begins the schedule. Returns an error if already running.
func (s *UpdateScheduler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	if s.config.Interval <= 0 {
		s.mu.Unlock()
		return fmt.Errorf("scheduler interval must be positive")
	}

	s.ticker = time.NewTicker(s.config.Interval)
	s.running = true
	ticker := s.ticker
	s.mu.Unlock()

	if s.config.RunImmediately {
		go s.runOnce()
	}

	go s.loop(ticker)
	return nil
}

// Stop halts the schedule. A run already in flight finishes on its own.
func (s *UpdateScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.ticker.Stop()
	close(s.stopChan)
	s.running = false
	s.stopChan = make(chan struct{})
}

// IsRunning reports whether the scheduler is active.
func (s *UpdateScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Stats returns run counters and the outcome of the last run.
func (s *UpdateScheduler) Stats() (lastRun time.Time, runs, failures int, lastErr error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun, s.runCount, s.failureCount, s.lastError
}

// TriggerNow runs the update function immediately, outside the schedule.
func (s *UpdateScheduler) TriggerNow() error {
	return s.runOnce()
}

func (s *UpdateScheduler) loop(ticker *time.Ticker) {
	s.mu.RLock()
	stop := s.stopChan
	s.mu.RUnlock()

	for {
		select {
		case <-ticker.C:
			_ = s.runOnce()
		case <-stop:
			return
		}
	}
}

func (s *UpdateScheduler) runOnce() error {
	ctx := context.Background()
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	err := s.update(ctx)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastError = err
	s.runCount++
	if err != nil {
		s.failureCount++
	}
	s.mu.Unlock()

	if s.config.OnComplete != nil {
		s.config.OnComplete(err)
	}
	return err
}
