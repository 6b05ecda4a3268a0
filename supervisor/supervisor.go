/*Package supervisor owns process-level lifecycle and operator-facing
status reporting: it periodically renders a one-line status (via
yacspin's terminal spinner when attached to a TTY, or via plain log
lines otherwise) and is the component that actually flips the shared
Store's running flag on shutdown.
*/
package supervisor

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/theckman/yacspin"

	"github.com/vcu-labs/vcu/control"
	"github.com/vcu-labs/vcu/rtsched"
	"github.com/vcu-labs/vcu/store"
)

// Supervisor renders a periodic status line describing the current
// mode, engine state, APS phase, and a running count of the status lines
// it has rendered, then owns the cooperative shutdown of the process.
type Supervisor struct {
	store    *store.Store
	pipeline *control.Pipeline
	period   time.Duration
	log      *log.Logger

	spinner *yacspin.Spinner
	cycles  uint64
}

// New returns a Supervisor. When useSpinner is false (cmd/vcu passes
// false when stdout is not a TTY), or the spinner cannot be created, the
// supervisor falls back to plain logger lines at the same cadence.
func New(s *store.Store, p *control.Pipeline, period time.Duration, logger *log.Logger, useSpinner bool) *Supervisor {
	sup := &Supervisor{store: s, pipeline: p, period: period, log: logger}
	if useSpinner {
		spinner, err := yacspin.New(yacspin.Config{
			Frequency:       period,
			CharSet:         yacspin.CharSets[59],
			Suffix:          " vehicle control unit",
			SuffixAutoColon: true,
			StopCharacter:   "✓",
			StopColors:      []string{"fgGreen"},
		})
		if err == nil {
			sup.spinner = spinner
		} else {
			logger.Printf("supervisor: spinner unavailable, falling back to log lines: %v", err)
		}
	}
	return sup
}

// Run blocks, rendering status at the configured period until ctx is
// canceled. On return it clears the Store's running flag so every
// periodic activity observing it exits on its next cycle. It pins
// itself to its own OS thread and requests the Supervisor scheduling
// tier for it — the lowest of the five periodic activities, since a
// missed status line has no safety consequence.
func (s *Supervisor) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := rtsched.Elevate(rtsched.ClassSupervisor); err != nil {
		s.log.Printf("supervisor: real-time priority unavailable, continuing at default scheduling class: %v", err)
	}

	if s.spinner != nil {
		if err := s.spinner.Start(); err == nil {
			defer s.spinner.Stop()
		}
	}

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.store.RequestStop()
			return
		case <-ticker.C:
			s.cycles++
			s.report()
		}
	}
}

func (s *Supervisor) report() {
	snap := s.store.SnapshotInputs()
	line := fmt.Sprintf("cycle=%d mode=%s engine=%v aps=%s", s.cycles, snap.Mode, snap.Engine.On, s.pipeline.APSPhase())

	if s.spinner != nil {
		s.spinner.Message(line)
		return
	}
	s.log.Println(line)
}
