// Package store implements the single shared-state rendezvous between the
// VCU's periodic activities: one mutex-guarded snapshot of joystick and
// sensor inputs, control mode, engine state, and the latest actuator
// command. No activity ever talks to another directly; every read and
// every write passes through here.
package store

import (
	"sync"
	"sync/atomic"

	"github.com/vcu-labs/vcu"
)

// Store is the single owner of the VCU's mutable world. The zero value is
// not ready for use; construct one with New.
type Store struct {
	mu sync.Mutex

	joy    vcu.JoystickInput
	sensor vcu.SensorSample
	mode   vcu.ControlMode
	engine vcu.EngineState
	out    vcu.ActuatorCommand

	running atomic.Bool
}

// New returns a Store initialized to the safe defaults required before any
// periodic activity starts: engine off, mode Assist, an empty sensor
// sample (every distance channel unavailable), and running=true.
func New() *Store {
	s := &Store{
		sensor: vcu.UnavailableSensorSample(),
		mode:   vcu.ModeAssist,
		out:    vcu.NullCommand(0),
	}
	s.running.Store(true)
	return s
}

// MergeSensor folds a freshly acquired sample into the stored one,
// channel by channel: a channel the driver reports as unavailable
// (distance < 0) is recorded as unavailable, but that channel's previous
// microsecond timestamp is left untouched rather than stamped to now.
// This is the data APS's staleness gate depends on — a channel that has
// gone quiet must visibly age, not silently look fresh. Ambient light and
// the whole-sample timestamp always adopt the incoming value, since they
// carry no per-channel freshness contract.
func (s *Store) MergeSensor(in vcu.SensorSample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.sensor
	merged.AmbientLux = in.AmbientLux
	merged.TsMs = in.TsMs

	if in.FrontToFMm >= 0 {
		merged.FrontToFMm = in.FrontToFMm
		merged.FrontTsUs = in.FrontTsUs
	} else {
		merged.FrontToFMm = -1
	}
	if in.LeftUltraMm >= 0 {
		merged.LeftUltraMm = in.LeftUltraMm
		merged.LeftTsUs = in.LeftTsUs
	} else {
		merged.LeftUltraMm = -1
	}
	if in.RightUltraMm >= 0 {
		merged.RightUltraMm = in.RightUltraMm
		merged.RightTsUs = in.RightTsUs
	} else {
		merged.RightUltraMm = -1
	}
	if in.RearUltraMm >= 0 {
		merged.RearUltraMm = in.RearUltraMm
		merged.RearTsUs = in.RearTsUs
	} else {
		merged.RearUltraMm = -1
	}

	s.sensor = merged
}

// SetJoystick overwrites the joystick field, the input driver contract.
func (s *Store) SetJoystick(joy vcu.JoystickInput) {
	s.mu.Lock()
	s.joy = joy
	s.mu.Unlock()
}

// SetEngine sets the engine-on gate.
func (s *Store) SetEngine(on bool) {
	s.mu.Lock()
	s.engine.On = on
	s.mu.Unlock()
}

// SetMode sets the control mode.
func (s *Store) SetMode(mode vcu.ControlMode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
}

// Snapshot is a consistent, single-lock-acquisition copy of everything the
// control pipeline reads.
type Snapshot struct {
	Joystick vcu.JoystickInput
	Sensor   vcu.SensorSample
	Mode     vcu.ControlMode
	Engine   vcu.EngineState
}

// SnapshotInputs copies the joystick, sensor, mode, and engine fields
// under one lock acquisition.
func (s *Store) SnapshotInputs() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Joystick: s.joy,
		Sensor:   s.sensor,
		Mode:     s.mode,
		Engine:   s.engine,
	}
}

// PublishCommand writes the actuator command produced by a control cycle.
func (s *Store) PublishCommand(cmd vcu.ActuatorCommand) {
	s.mu.Lock()
	s.out = cmd
	s.mu.Unlock()
}

// Command returns the most recently published actuator command. Consumers
// other than the control pipeline (egress, the supervisor, diagnostics)
// use this rather than SnapshotInputs.
func (s *Store) Command() vcu.ActuatorCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out
}

// EngineOn reports the engine gate without pulling the rest of the
// snapshot; egress needs only this field each cycle.
func (s *Store) EngineOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.On
}

// ObserveRunning reports whether the VCU is still supposed to be running.
func (s *Store) ObserveRunning() bool {
	return s.running.Load()
}

// RequestStop flips running to false. Idempotent, and safe to call from a
// signal handler because it touches only the atomic flag, never the
// mutex-guarded fields.
func (s *Store) RequestStop() {
	s.running.Store(false)
}
