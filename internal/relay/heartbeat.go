package relay

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultHeartbeatInterval is the period between liveness sweeps.
const DefaultHeartbeatInterval = 10 * time.Second

// HeartbeatMonitor runs sweep on a fixed period between Start and Stop.
type HeartbeatMonitor struct {
	logger   *slog.Logger
	interval time.Duration
	sweep    func()

	mu      sync.Mutex
	stop    chan struct{}
	running bool
}

func NewHeartbeatMonitor(logger *slog.Logger, interval time.Duration, sweep func()) *HeartbeatMonitor {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}

	return &HeartbeatMonitor{
		logger:   logger.With("component", "heartbeat"),
		interval: interval,
		sweep:    sweep,
	}
}

// Start launches the sweep loop. It does not block and is a no-op when already running.
func (that *HeartbeatMonitor) Start() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.running {
		return
	}

	that.stop = make(chan struct{})
	that.running = true

	go that.loop(that.stop)

	that.logger.Debug("heartbeat started", "interval", that.interval)
}

// Stop signals the sweep loop to exit without waiting for it, so it is safe to call from a sweep.
func (that *HeartbeatMonitor) Stop() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.running {
		return
	}

	close(that.stop)
	that.running = false

	that.logger.Debug("heartbeat stopped")
}

func (that *HeartbeatMonitor) Running() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.running
}

func (that *HeartbeatMonitor) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(that.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			that.sweep()
		}
	}
}
