/*Package inputacq implements Joystick Acquisition: the periodic activity
that reads the operator's joystick input from a Driver and publishes it
to the shared Store. It is the joystick-channel counterpart to
package sensoracq and follows the same bounded-cycle, backoff-on-failure
discipline.
*/
package inputacq

import (
	"context"
	"log"
	"runtime"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/vcu-labs/vcu"
	"github.com/vcu-labs/vcu/rtsched"
	"github.com/vcu-labs/vcu/store"
)

// Driver is the joystick-facing contract Joystick Acquisition polls.
type Driver interface {
	Read(ctx context.Context) (vcu.JoystickInput, error)
}

// Acquirer runs the periodic Joystick Acquisition activity.
type Acquirer struct {
	store  *store.Store
	driver Driver
	period time.Duration
	log    *log.Logger
}

// New returns an Acquirer bound to store and driver, polling at period.
func New(s *store.Store, driver Driver, period time.Duration, logger *log.Logger) *Acquirer {
	return &Acquirer{store: s, driver: driver, period: period, log: logger}
}

// Run blocks, polling at the configured period until ctx is canceled or
// the store's running flag is cleared. It pins itself to its own OS
// thread and requests the Input scheduling tier for it, below Sensor and
// above Egress per the specification's priority ordering.
func (a *Acquirer) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := rtsched.Elevate(rtsched.ClassInput); err != nil {
		a.log.Printf("inputacq: real-time priority unavailable, continuing at default scheduling class: %v", err)
	}

	ticker := time.NewTicker(a.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !a.store.ObserveRunning() {
				return
			}
			a.cycle(ctx)
		}
	}
}

// cycle reads one joystick sample, bounded to half the acquisition
// period and retried with a short bounded backoff on failure. A cycle
// that never succeeds leaves the Store's previous joystick input in
// place rather than snapping the operator to neutral.
func (a *Acquirer) cycle(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, a.period/2)
	defer cancel()

	var in vcu.JoystickInput
	op := func() error {
		var err error
		in, err = a.driver.Read(cctx)
		return err
	}
	err := backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     2 * time.Millisecond,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         a.period / 4,
		MaxElapsedTime:      a.period / 2,
		Clock:               backoff.SystemClock,
	})
	if err != nil {
		a.log.Printf("inputacq: read failed after retry: %v", err)
		return
	}
	a.store.SetJoystick(in)
}
