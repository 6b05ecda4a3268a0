//go:build linux

package rtsched

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Elevate attempts to move the calling OS thread into SCHED_FIFO at a
// priority derived from class. Callers that need this to apply to a
// specific goroutine must have pinned it to its OS thread first with
// runtime.LockOSThread.
func Elevate(class Class) error {
	attr := &unix.SchedParam{Priority: int32(class.priority())}
	if err := unix.SchedSetscheduler(0, unix.SCHED_FIFO, attr); err != nil {
		return fmt.Errorf("%w: %v", ErrPriorityUnavailable, err)
	}
	return nil
}
