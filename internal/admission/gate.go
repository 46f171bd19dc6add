package admission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrGateBusy is returned by Reconfigure while tickets are waiting or held.
var ErrGateBusy = errors.New("admission gate has waiting or active tickets")

// Config holds the gate's admission limits.
type Config struct {
	// MaxConcurrent is the number of tickets that may be held at once.
	// If zero or negative, defaults to 1.
	MaxConcurrent int

	// MinInterval is the minimum time between two consecutive admissions,
	// measured across all callers.
	MinInterval time.Duration
}

// DefaultConfig returns a Config with the limits the generative service
// tolerates out of the box.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 3,
		MinInterval:   5 * time.Second,
	}
}

// Stats is a point-in-time view of the gate counters.
type Stats struct {
	// Serving is one past the number of the most recently admitted ticket.
	Serving  uint64
	Admitted uint64
	Active   int
	Waiting  int
}

// Gate admits units of work in strict FIFO ticket order, bounded by a
// concurrency ceiling and spaced by a global minimum interval.
//
// The ticket counter, serving counter, active count and queue are only
// touched under mu.
type Gate struct {
	mu sync.Mutex

	maxConcurrent int
	minInterval   time.Duration

	nextTicket uint64
	serving    uint64
	admitted   uint64
	active     int
	lastAdmit  time.Time
	queue      []*Ticket

	// timer re-runs dispatch once the spacing interval allows an admission.
	timer *time.Timer

	now    func() time.Time
	logger *slog.Logger
}

// NewGate creates a gate with the given limits.
func NewGate(cfg Config, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gate{
		now:    time.Now,
		logger: logger.With("component", "admission_gate"),
	}
	g.apply(cfg)
	return g
}

func (g *Gate) apply(cfg Config) {
	if cfg.MaxConcurrent <= 0 {
		g.logger.Warn("invalid concurrency limit specified, using default",
			"specified", cfg.MaxConcurrent,
			"default", 1)
		cfg.MaxConcurrent = 1
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	g.maxConcurrent = cfg.MaxConcurrent
	g.minInterval = cfg.MinInterval
}

// Enqueue takes the next ticket without blocking. The ticket's place in
// line is fixed by the order of Enqueue calls.
func (g *Gate) Enqueue() *Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := &Ticket{
		gate:       g,
		number:     g.nextTicket,
		enqueuedAt: g.now(),
		ready:      make(chan struct{}),
	}
	g.nextTicket++
	g.queue = append(g.queue, t)
	g.dispatchLocked()
	return t
}

// Admit takes a ticket and blocks until it is admitted or ctx is done.
func (g *Gate) Admit(ctx context.Context) (*Ticket, error) {
	t := g.Enqueue()
	if err := t.Wait(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// Do runs fn while holding a ticket.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	t, err := g.Admit(ctx)
	if err != nil {
		return err
	}
	defer t.Release()
	return fn(ctx)
}

// Reconfigure replaces the limits and resets every counter. It must only
// be called between runs.
func (g *Gate) Reconfigure(cfg Config) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.queue) > 0 || g.active > 0 {
		return fmt.Errorf("%w: waiting=%d active=%d", ErrGateBusy, len(g.queue), g.active)
	}
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.apply(cfg)
	g.nextTicket = 0
	g.serving = 0
	g.admitted = 0
	g.lastAdmit = time.Time{}
	g.logger.Info("admission gate reconfigured",
		"max_concurrent", g.maxConcurrent,
		"min_interval", g.minInterval)
	return nil
}

// Stats returns the current counters.
func (g *Gate) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Stats{Serving: g.serving, Admitted: g.admitted, Active: g.active, Waiting: len(g.queue)}
}

// dispatchLocked admits waiting tickets from the head of the queue while
// a slot is free and the spacing interval has elapsed. Only the head is
// ever considered, so a later ticket can never overtake an earlier one.
func (g *Gate) dispatchLocked() {
	for len(g.queue) > 0 {
		if g.active >= g.maxConcurrent {
			return
		}

		now := g.now()
		if !g.lastAdmit.IsZero() && g.minInterval > 0 {
			if wait := g.lastAdmit.Add(g.minInterval).Sub(now); wait > 0 {
				g.scheduleLocked(wait)
				return
			}
		}

		t := g.queue[0]
		g.queue[0] = nil
		g.queue = g.queue[1:]

		g.active++
		g.admitted++
		g.serving = t.number + 1
		g.lastAdmit = now
		t.admittedAt = now
		t.admitted = true
		close(t.ready)

		g.logger.Debug("ticket admitted",
			"ticket", t.number,
			"active", g.active,
			"waiting", len(g.queue),
			"waited_ms", now.Sub(t.enqueuedAt).Milliseconds())
	}
}

func (g *Gate) scheduleLocked(wait time.Duration) {
	if g.timer != nil {
		return
	}
	g.timer = time.AfterFunc(wait, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.timer = nil
		g.dispatchLocked()
	})
}

// cancelLocked takes an unadmitted ticket out of the queue.
func (g *Gate) cancelLocked(t *Ticket) {
	for i, q := range g.queue {
		if q == t {
			copy(g.queue[i:], g.queue[i+1:])
			g.queue[len(g.queue)-1] = nil
			g.queue = g.queue[:len(g.queue)-1]
			break
		}
	}
	t.released = true
	// The head may have changed.
	g.dispatchLocked()
}

func (g *Gate) releaseLocked(t *Ticket) {
	if t.released {
		return
	}
	t.released = true
	g.active--
	g.dispatchLocked()
}
