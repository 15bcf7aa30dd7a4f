package logging

import (
	"log/slog"
	"sync"
	"time"
)

type eventKey struct {
	component string
	event     string
}

type eventCount struct {
	count  int64
	fields []slog.Attr
}

// Aggregator turns bursts of identical events (one per search keystroke, one
// per snapshot reload) into a periodic "event_summary" record.
type Aggregator struct {
	logger   *slog.Logger
	interval time.Duration

	mu     sync.Mutex
	counts map[eventKey]*eventCount

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewAggregator returns an aggregator flushing every intervalSecs seconds.
// With a nil logger, recorded events are dropped at flush time.
func NewAggregator(logger *slog.Logger, intervalSecs int) *Aggregator {
	if intervalSecs <= 0 {
		intervalSecs = 30
	}
	return &Aggregator{
		logger:   logger,
		interval: time.Duration(intervalSecs) * time.Second,
		counts:   make(map[eventKey]*eventCount),
		done:     make(chan struct{}),
	}
}

// Start launches the flush loop.
func (a *Aggregator) Start() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				a.flush()
			case <-a.done:
				return
			}
		}
	}()
}

// Stop ends the flush loop and writes whatever is pending.
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() { close(a.done) })
	a.wg.Wait()
	a.flush()
}

// Record counts one occurrence. The fields of the latest call are kept.
func (a *Aggregator) Record(component, event string, fields ...slog.Attr) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := eventKey{component, event}
	c := a.counts[key]
	if c == nil {
		c = &eventCount{}
		a.counts[key] = c
	}
	c.count++
	if len(fields) > 0 {
		c.fields = fields
	}
}

func (a *Aggregator) flush() {
	a.mu.Lock()
	pending := a.counts
	a.counts = make(map[eventKey]*eventCount)
	a.mu.Unlock()

	if a.logger == nil || len(pending) == 0 {
		return
	}
	for key, c := range pending {
		args := []any{
			slog.String("component", key.component),
			slog.String("event", key.event),
			slog.Int64("count", c.count),
			slog.Int("window_seconds", int(a.interval.Seconds())),
		}
		for _, f := range c.fields {
			args = append(args, f)
		}
		a.logger.Info("event_summary", args...)
	}
}
