package runner

import (
	"context"
	"sync"
	"time"

	"digital.vasic.skilleval/pkg/agent"
	"digital.vasic.skilleval/pkg/logging"
)

// progress is an agent.Observer that turns every agent event into
// a liveness signal. Signals coalesce; the monitor only needs to
// know that something happened since it last looked.
type progress struct {
	ch chan struct{}
}

func newProgress() *progress {
	return &progress{ch: make(chan struct{}, 1)}
}

// OnEvent records forward progress without blocking the agent.
func (p *progress) OnEvent(agent.Event) {
	select {
	case p.ch <- struct{}{}:
	default:
	}
}

// livenessMonitor watches an agent's event stream and cancels the
// test context if no event arrives within the stale threshold. A
// long run is fine as long as the agent keeps taking turns.
type livenessMonitor struct {
	progress       *progress
	staleThreshold time.Duration
	cancel         context.CancelFunc
	logger         logging.Logger
	testID         string
}

// startLivenessMonitor starts the monitor goroutine. The returned
// stop function must be called when the test finishes. If progress
// is nil or staleThreshold is zero, detection is disabled and stuck
// is nil.
func startLivenessMonitor(
	progress *progress,
	staleThreshold time.Duration,
	cancel context.CancelFunc,
	logger logging.Logger,
	testID string,
) (stop func(), stuck <-chan struct{}) {
	if progress == nil || staleThreshold <= 0 {
		return func() {}, nil
	}
	if logger == nil {
		logger = logging.NullLogger{}
	}

	m := &livenessMonitor{
		progress:       progress,
		staleThreshold: staleThreshold,
		cancel:         cancel,
		logger:         logger,
		testID:         testID,
	}

	stopCh := make(chan struct{})
	stuckCh := make(chan struct{})

	go m.run(stopCh, stuckCh)

	var once sync.Once
	return func() {
		once.Do(func() { close(stopCh) })
	}, stuckCh
}

// run resets the stale timer on every signal. If the timer fires
// the test is stuck.
func (m *livenessMonitor) run(
	stopCh <-chan struct{},
	stuckCh chan<- struct{},
) {
	timer := time.NewTimer(m.staleThreshold)
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			return

		case <-m.progress.ch:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(m.staleThreshold)

		case <-timer.C:
			m.logger.Error("test_stuck",
				logging.String("test", m.testID),
				logging.Float("stale_threshold_seconds", m.staleThreshold.Seconds()),
			)
			close(stuckCh)
			m.cancel()
			return
		}
	}
}
