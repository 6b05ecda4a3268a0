/*Package rtsched implements best-effort OS scheduling-priority elevation
for the process's periodic activities, mirroring the original firmware's
per-thread set_realtime_sched(PRIO_*) calls. Elevation is opt-in and
advisory: a process without CAP_SYS_NICE (or not running as root) cannot
elevate, and that failure is never fatal — it is logged once and the
activity continues at the default scheduling class.
*/
package rtsched

import "errors"

// ErrPriorityUnavailable is returned by Elevate when the OS declines the
// requested scheduling class or priority, typically for lack of
// privilege.
var ErrPriorityUnavailable = errors.New("rtsched: real-time priority unavailable")

// Class names a logical priority tier. The specification orders the five
// periodic activities Control > Sensor > Input > Egress > Supervisor;
// each activity elevates itself to its own tier from its own goroutine.
type Class int

const (
	// ClassControl is used by the control pipeline goroutine.
	ClassControl Class = iota
	// ClassSensor is used by sensor acquisition.
	ClassSensor
	// ClassInput is used by joystick acquisition.
	ClassInput
	// ClassEgress is used by command egress.
	ClassEgress
	// ClassSupervisor is used by the status-reporting supervisor.
	ClassSupervisor
)

func (c Class) priority() int {
	switch c {
	case ClassControl:
		return 20
	case ClassSensor:
		return 17
	case ClassInput:
		return 14
	case ClassEgress:
		return 11
	case ClassSupervisor:
		return 8
	default:
		return 0
	}
}

// Priority reports the raw SCHED_FIFO priority Elevate would request for
// c, for tests and diagnostics that need to compare tiers without
// actually calling into the scheduler.
func Priority(c Class) int {
	return c.priority()
}
