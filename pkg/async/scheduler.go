package async

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/noahsabaj/hearth-docs/pkg/observability"
	"github.com/robfig/cron/v3"
)

// Scheduler runs named jobs on cron schedules. Each run goes through SafeGo,
// so a panicking or failing job never stops the scheduler. A job whose
// previous run is still active is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *observability.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a stopped scheduler using standard 5-field cron specs
func NewScheduler(logger *observability.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers fn under spec. timeout bounds a single run.
func (s *Scheduler) Add(spec, name string, timeout time.Duration, fn func(context.Context) error) error {
	var running sync.Mutex

	_, err := s.cron.AddFunc(spec, func() {
		if !running.TryLock() {
			s.logger.WithField("task", name).Warn("previous run still active, skipping")
			return
		}
		s.wg.Add(1)
		done := SafeGo(s.ctx, s.logger, timeout, name, fn)
		go func() {
			<-done
			running.Unlock()
			s.wg.Done()
		}()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}

	s.logger.WithFields(map[string]interface{}{"task": name, "schedule": spec}).Info("scheduled background task")
	return nil
}

// Len returns the number of registered jobs
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling, cancels running jobs and waits for them to return
// or for ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}
