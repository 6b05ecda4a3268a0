package main

import (
	"context"
	"log"
	"runtime"
	"time"

	"github.com/vcu-labs/vcu/control"
	"github.com/vcu-labs/vcu/egress"
	"github.com/vcu-labs/vcu/rtsched"
	"github.com/vcu-labs/vcu/store"
)

// runControlLoop drives the control pipeline at period until ctx is
// canceled or the store's running flag is cleared. It pins itself to its
// own OS thread and requests the Control scheduling tier for it — the
// highest of the five periodic activities.
func runControlLoop(ctx context.Context, s *store.Store, p *control.Pipeline, period time.Duration, logger *log.Logger) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := rtsched.Elevate(rtsched.ClassControl); err != nil {
		logger.Printf("control: real-time priority unavailable, continuing at default scheduling class: %v", err)
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !s.ObserveRunning() {
				return
			}
			p.Tick(now)
		}
	}
}

// runEgressLoop drives Command Egress at period until ctx is canceled.
// It pins itself to its own OS thread and requests the Egress scheduling
// tier for it.
func runEgressLoop(ctx context.Context, e *egress.Egress, period time.Duration, logger *log.Logger) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := rtsched.Elevate(rtsched.ClassEgress); err != nil {
		logger.Printf("egress: real-time priority unavailable, continuing at default scheduling class: %v", err)
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}
