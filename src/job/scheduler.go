package job

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// SchedulerConfig ...
type SchedulerConfig struct {
	// PollInterval is the time between passes while jobs are pending.
	PollInterval time.Duration

	// SlowPollInterval is the time between passes while no job is pending.
	SlowPollInterval time.Duration

	// JobTimeout is the maximum age of a pending job. Older jobs are aborted.
	// Zero disables the timeout.
	JobTimeout time.Duration
}

// DefaultSchedulerConfig ...
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		PollInterval:     10 * time.Millisecond,
		SlowPollInterval: time.Second,
		JobTimeout:       30 * time.Second,
	}
}

// Scheduler runs pending jobs round-robin on a single goroutine. Each pass runs
// every non-terminal job once, then drops the terminal ones. Passes are paced
// by a ControlTimer, and triggered immediately when a job is submitted.
type Scheduler struct {
	conf   SchedulerConfig
	logger *logrus.Entry

	queueLock sync.Mutex
	queue     []Job

	// passLock makes passes mutually exclusive, so that each job has a single
	// writer.
	passLock sync.Mutex

	controlTimer *ControlTimer
	wakeCh       chan struct{}
	shutdownCh   chan struct{}
	doneCh       chan struct{}
	running      int32
	shutdown     int32

	now func() time.Time

	passes    uint64
	completed uint64
	aborted   uint64
	timedOut  uint64
}

// NewScheduler ...
func NewScheduler(conf SchedulerConfig, logger *logrus.Entry) *Scheduler {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Scheduler{
		conf:         conf,
		logger:       logger,
		controlTimer: NewTimeControlTimer(),
		wakeCh:       make(chan struct{}, 1),
		shutdownCh:   make(chan struct{}),
		doneCh:       make(chan struct{}),
		now:          time.Now,
	}
}

// Submit enqueues a job and wakes the scheduler.
func (s *Scheduler) Submit(j Job) {
	s.queueLock.Lock()
	s.queue = append(s.queue, j)
	s.queueLock.Unlock()

	s.logger.WithFields(logrus.Fields{
		"job":    j.ID(),
		"kind":   j.Kind(),
		"target": j.Target(),
	}).Debug("Job submitted")

	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Pending returns the jobs which have not been dropped yet.
func (s *Scheduler) Pending() []Job {
	s.queueLock.Lock()
	defer s.queueLock.Unlock()

	res := make([]Job, len(s.queue))
	copy(res, s.queue)
	return res
}

// Pass runs every pending non-terminal job once and drops the terminal ones.
// Jobs submitted during the pass are run on the next one.
func (s *Scheduler) Pass() {
	s.passLock.Lock()
	defer s.passLock.Unlock()

	atomic.AddUint64(&s.passes, 1)

	for _, j := range s.Pending() {
		if !j.Terminal() {
			if s.expired(j) {
				atomic.AddUint64(&s.timedOut, 1)
				j.Cancel(fmt.Sprintf("timed out in phase %s", j.Phase()))
			} else {
				j.Run()
			}
		}
	}

	s.queueLock.Lock()
	kept := s.queue[:0]
	for _, j := range s.queue {
		switch j.Phase() {
		case Complete:
			atomic.AddUint64(&s.completed, 1)
		case Abort:
			atomic.AddUint64(&s.aborted, 1)
		default:
			kept = append(kept, j)
		}
	}
	for i := len(kept); i < len(s.queue); i++ {
		s.queue[i] = nil
	}
	s.queue = kept
	s.queueLock.Unlock()
}

func (s *Scheduler) expired(j Job) bool {
	return s.conf.JobTimeout > 0 && s.now().Sub(j.Created()) > s.conf.JobTimeout
}

// RunAsync calls Run in a separate goroutine.
func (s *Scheduler) RunAsync() {
	go s.Run()
}

// Run is the scheduler loop. It returns after Shutdown.
func (s *Scheduler) Run() {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		s.logger.Warn("Scheduler already running")
		return
	}
	defer close(s.doneCh)

	go s.controlTimer.Run(s.interval())
	defer s.controlTimer.Shutdown()

	s.logger.Debug("Scheduler running")

	for {
		select {
		case <-s.controlTimer.tickCh:
		case <-s.wakeCh:
		case <-s.shutdownCh:
			return
		}

		s.Pass()

		select {
		case s.controlTimer.resetCh <- s.interval():
		case <-s.shutdownCh:
			return
		}
	}
}

func (s *Scheduler) interval() time.Duration {
	if len(s.Pending()) > 0 {
		return s.conf.PollInterval
	}
	return s.conf.SlowPollInterval
}

// Shutdown stops the scheduler loop and waits for the current pass to finish.
// Pending jobs are left as they are.
func (s *Scheduler) Shutdown() {
	if !atomic.CompareAndSwapInt32(&s.shutdown, 0, 1) {
		return
	}

	s.logger.Debug("Scheduler shutdown")

	close(s.shutdownCh)

	if atomic.LoadInt32(&s.running) == 1 {
		<-s.doneCh
	}
}

// GetStats returns counters describing the scheduler's activity.
func (s *Scheduler) GetStats() map[string]string {
	return map[string]string{
		"pending":   strconv.Itoa(len(s.Pending())),
		"passes":    strconv.FormatUint(atomic.LoadUint64(&s.passes), 10),
		"completed": strconv.FormatUint(atomic.LoadUint64(&s.completed), 10),
		"aborted":   strconv.FormatUint(atomic.LoadUint64(&s.aborted), 10),
		"timed_out": strconv.FormatUint(atomic.LoadUint64(&s.timedOut), 10),
	}
}
