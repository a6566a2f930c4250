package task

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/phrazzld/concentration/internal/domain/game"
)

// Submitter queues a function for execution. Post must not block and must
// not drop fn while the Submitter is running.
type Submitter interface {
	Post(taskType string, fn func()) error
}

// ClockScheduler implements game.Scheduler on top of a clockwork.Clock.
//
// Callbacks never run on the clock's goroutine. Each firing is posted to the
// Submitter, which for a hosted game is that game's SerialExecutor, so a
// callback is serialized with every other command on the session. A full
// command queue delays callbacks but never loses them.
type ClockScheduler struct {
	clock  clockwork.Clock
	exec   Submitter
	logger *slog.Logger
}

var _ game.Scheduler = (*ClockScheduler)(nil)

// NewClockScheduler creates a scheduler driven by clock
func NewClockScheduler(clock clockwork.Clock, exec Submitter, logger *slog.Logger) *ClockScheduler {
	return &ClockScheduler{
		clock:  clock,
		exec:   exec,
		logger: logger,
	}
}

// AfterFunc runs fn once after d
func (s *ClockScheduler) AfterFunc(d time.Duration, fn func()) game.Job {
	timer := s.clock.AfterFunc(d, func() {
		s.submit(fn)
	})
	return timerJob{timer: timer}
}

// Every runs fn every d until the returned job is stopped
func (s *ClockScheduler) Every(d time.Duration, fn func()) game.Job {
	job := &tickerJob{
		ticker: s.clock.NewTicker(d),
		done:   make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-job.done:
				return
			case <-job.ticker.Chan():
				s.submit(fn)
			}
		}
	}()

	return job
}

func (s *ClockScheduler) submit(fn func()) {
	if err := s.exec.Post(TaskTypeGameTimer, fn); err != nil {
		// Only a stopped executor refuses posts; its session is gone.
		s.logger.Debug("discarding timer callback", "error", err)
	}
}

type timerJob struct {
	timer clockwork.Timer
}

func (j timerJob) Stop() bool {
	return j.timer.Stop()
}

type tickerJob struct {
	ticker clockwork.Ticker
	once   sync.Once
	done   chan struct{}
}

func (j *tickerJob) Stop() bool {
	stopped := false
	j.once.Do(func() {
		j.ticker.Stop()
		close(j.done)
		stopped = true
	})
	return stopped
}
