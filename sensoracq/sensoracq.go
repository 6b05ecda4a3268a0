/*Package sensoracq implements Sensor Acquisition: the periodic activity
that reads the four distance/light channels from a Driver and publishes
them to the shared Store.

Each cycle is bounded to half the acquisition period (per the
specification's fixed-period invariant) and rate-limited so a
misbehaving driver cannot starve the rest of the process; a failing
driver is retried with a bounded backoff rather than torn down, the way
RemoteDevice.Open retries a device connection in the wider codebase this
project grew out of.
*/
package sensoracq

import (
	"context"
	"errors"
	"log"
	"runtime"
	"time"

	"github.com/cenkalti/backoff"
	"golang.org/x/time/rate"

	"github.com/vcu-labs/vcu"
	"github.com/vcu-labs/vcu/rtsched"
	"github.com/vcu-labs/vcu/store"
)

// ErrChannelUnavailable names a Driver's report that a channel cannot
// currently be read. cycle does not inspect it: like any other Driver
// error it is retried within the cycle's backoff budget, and if it
// persists the cycle publishes nothing. A Driver that wants a single
// channel marked unavailable returns a sample with that distance
// negative instead.
var ErrChannelUnavailable = errors.New("sensoracq: channel unavailable")

// ErrStale names a Driver's report that its last successful read is
// older than the caller should trust. cycle does not inspect it either:
// it is retried like any other error, and a sample returned alongside it
// is not published. Freshness gating of published samples is the
// consumer's job (APS enforces its own per-channel staleness window).
var ErrStale = errors.New("sensoracq: sample stale")

// Driver is the hardware-facing contract Sensor Acquisition polls. A
// production Driver wraps a SOME/IP or direct device read; SimDriver
// provides a deterministic stand-in for development and tests.
type Driver interface {
	Sample(ctx context.Context) (vcu.SensorSample, error)
}

// Acquirer runs the periodic Sensor Acquisition activity.
type Acquirer struct {
	store   *store.Store
	driver  Driver
	period  time.Duration
	limiter *rate.Limiter
	log     *log.Logger
}

// New returns an Acquirer bound to store and driver, polling at period.
// The limiter admits one read per period plus a small burst, so a driver
// that returns instantly cannot be called tighter than the configured
// cadence even if Run's ticker drifts.
func New(s *store.Store, driver Driver, period time.Duration, logger *log.Logger) *Acquirer {
	ratePerSec := float64(time.Second) / float64(period)
	return &Acquirer{
		store:   s,
		driver:  driver,
		period:  period,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 2),
		log:     logger,
	}
}

// Run blocks, sampling at the configured period until ctx is canceled or
// the store's running flag is cleared. It pins itself to its own OS
// thread and requests the Sensor scheduling tier for it, so the
// elevation actually applies to the thread running this loop rather than
// whichever thread happened to call Run.
func (a *Acquirer) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := rtsched.Elevate(rtsched.ClassSensor); err != nil {
		a.log.Printf("sensoracq: real-time priority unavailable, continuing at default scheduling class: %v", err)
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

// cycle runs a single bounded acquisition: the device read gets at most
// half the acquisition period, and a failing read is retried with a
// short bounded backoff before the cycle gives up and leaves the Store's
// previous sample in place.
func (a *Acquirer) cycle(ctx context.Context) {
	if err := a.limiter.Wait(ctx); err != nil {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, a.period/2)
	defer cancel()

	var sample vcu.SensorSample
	op := func() error {
		var err error
		sample, err = a.driver.Sample(cctx)
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
		a.log.Printf("sensoracq: read failed after retry: %v", err)
		return
	}
	a.store.MergeSensor(sample)
}
