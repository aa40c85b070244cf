package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// ReloadFunc is the externally supplied reload operation. It may fail; the
// coalescer treats success and failure identically for scheduling.
type ReloadFunc func(ctx context.Context) error

// ReloadCoalescer serializes an expensive reload against bursts of change
// notifications. At most one reload runs at any instant; any trigger arriving
// while one is in flight schedules exactly one follow-up run, never a queue.
//
// State machine over two flags:
//
//	idle                     — trigger starts a reload
//	busy, nothing pending    — trigger sets requested and returns
//	busy, already pending    — trigger is a no-op
//
// On completion the pending flag, if set, immediately starts the next run
// whether the finished reload succeeded or failed.
type ReloadCoalescer struct {
	reload ReloadFunc
	base   context.Context
	log    zerolog.Logger

	mu         sync.Mutex
	inProgress bool
	requested  bool
}

// NewReloadCoalescer creates a coalescer around reload. Reloads run under
// ctx; there is no per-run timeout or cancellation — once started, a reload
// runs to completion.
func NewReloadCoalescer(ctx context.Context, reload ReloadFunc, log zerolog.Logger) *ReloadCoalescer {
	return &ReloadCoalescer{
		reload: reload,
		base:   ctx,
		log:    log,
	}
}

// Trigger signals that the underlying data changed. It never blocks: the
// reload itself runs on its own goroutine.
func (c *ReloadCoalescer) Trigger() {
	c.mu.Lock()
	if c.inProgress {
		c.requested = true
		c.mu.Unlock()
		return
	}
	c.inProgress = true
	c.mu.Unlock()

	go c.run()
}

// run executes reloads until no follow-up is pending. The flag check and the
// decision to continue happen under the same lock acquisition, so two runs
// can never overlap.
func (c *ReloadCoalescer) run() {
	for {
		if err := c.reload(c.base); err != nil {
			// Failures never suppress a pending re-run.
			c.log.Error().Err(err).Msg("reload failed")
		}

		c.mu.Lock()
		if c.requested {
			c.requested = false
			c.mu.Unlock()
			continue
		}
		c.inProgress = false
		c.mu.Unlock()
		return
	}
}
