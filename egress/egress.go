// Package egress implements Command Egress: the periodic activity that
// reads the latest actuator command and emits edge-triggered requests to
// downstream actuator services, one per independent actuator group, only
// when that group's fields differ from the last value this process
// actually dispatched.
package egress

import (
	"errors"
	"fmt"
	"log"

	"github.com/vcu-labs/vcu"
	"github.com/vcu-labs/vcu/store"
)

// ErrDispatchFailed wraps any error an Actuators method returns, so
// callers that care can distinguish a dispatch failure from other log
// lines without string-matching.
var ErrDispatchFailed = errors.New("egress: actuator dispatch failed")

// Actuators is the downstream actuator-service contract: four idempotent,
// best-effort request operations. Delivery failures are reported through
// the error return; Egress never retries within a cycle.
type Actuators interface {
	BuzzerControl(on bool, hz int) error
	LEDControl(side LEDSide, on bool) error
	AlertControl(intervalMs int) error
	MotorControl(throttle, steer int) error
}

// LEDSide names one of the three logical LEDs.
type LEDSide int

const (
	LEDRear LEDSide = iota
	LEDFrontLow
	LEDFrontHigh
)

func (s LEDSide) String() string {
	switch s {
	case LEDRear:
		return "rear"
	case LEDFrontLow:
		return "front_low"
	case LEDFrontHigh:
		return "front_high"
	default:
		return "unknown"
	}
}

// Egress owns the previous-command cache: the dispatch state Command
// Egress diffs each cycle's output against.
type Egress struct {
	store     *store.Store
	actuators Actuators
	log       *log.Logger

	prev vcu.ActuatorCommand
}

// New returns an Egress bound to store and actuators, with its cache
// initialized to the null command per the specification.
func New(s *store.Store, actuators Actuators, logger *log.Logger) *Egress {
	return &Egress{
		store:     s,
		actuators: actuators,
		log:       logger,
		prev:      vcu.NullCommand(0),
	}
}

// PreviousCommand returns the last command successfully dispatched to
// each actuator group, for the diagnostics surface.
func (e *Egress) PreviousCommand() interface{} {
	return e.prev
}

// Tick runs one egress cycle: if the engine is off, every emission is
// suppressed (the previous-command cache is left untouched, so the first
// cycle after engine-on re-evaluates every group against the last state
// actually dispatched). Otherwise each of the six actuator groups is
// diffed against the cache and dispatched independently on a mismatch.
//
// A failed dispatch is logged and does NOT update the cache for that
// group, so the next cycle's unchanged-from-failure state is still seen
// as "differs from last successfully dispatched value" and is retried
// (see the specification's open question on this point; this is the
// chosen behavior).
func (e *Egress) Tick() {
	out := e.store.Command()
	if !e.store.EngineOn() {
		return
	}

	if out.BuzzerOn != e.prev.BuzzerOn || out.BuzzerFrequencyHz != e.prev.BuzzerFrequencyHz {
		if err := e.actuators.BuzzerControl(out.BuzzerOn, out.BuzzerFrequencyHz); err != nil {
			e.logFailure("buzzer_control", err)
		} else {
			e.prev.BuzzerOn = out.BuzzerOn
			e.prev.BuzzerFrequencyHz = out.BuzzerFrequencyHz
		}
	}

	if out.RearAlertOn != e.prev.RearAlertOn {
		if err := e.actuators.LEDControl(LEDRear, out.RearAlertOn); err != nil {
			e.logFailure("led_control(rear)", err)
		} else {
			e.prev.RearAlertOn = out.RearAlertOn
		}
	}

	if out.LowBeamOn != e.prev.LowBeamOn {
		if err := e.actuators.LEDControl(LEDFrontLow, out.LowBeamOn); err != nil {
			e.logFailure("led_control(front_low)", err)
		} else {
			e.prev.LowBeamOn = out.LowBeamOn
		}
	}

	if out.HighBeamOn != e.prev.HighBeamOn {
		if err := e.actuators.LEDControl(LEDFrontHigh, out.HighBeamOn); err != nil {
			e.logFailure("led_control(front_high)", err)
		} else {
			e.prev.HighBeamOn = out.HighBeamOn
		}
	}

	if out.AlertIntervalMs != e.prev.AlertIntervalMs {
		if err := e.actuators.AlertControl(out.AlertIntervalMs); err != nil {
			e.logFailure("alert_control", err)
		} else {
			e.prev.AlertIntervalMs = out.AlertIntervalMs
		}
	}

	if out.Throttle != e.prev.Throttle || out.Steer != e.prev.Steer {
		if err := e.actuators.MotorControl(out.Throttle, out.Steer); err != nil {
			e.logFailure("motor_control", err)
		} else {
			e.prev.Throttle = out.Throttle
			e.prev.Steer = out.Steer
		}
	}
}

func (e *Egress) logFailure(group string, err error) {
	e.log.Printf("%s dispatch failed: %v", group, fmt.Errorf("%w: %v", ErrDispatchFailed, err))
}
