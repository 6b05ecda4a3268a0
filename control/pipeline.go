// Package control implements the control pipeline: the periodic activity
// that reads the shared snapshot, runs High-Beam Assist, the driving law
// (manual, assist, or the Automatic Parking System), and Automatic
// Emergency Braking in that order, and republishes the resulting actuator
// command.
package control

import (
	"time"

	"github.com/vcu-labs/vcu"
	"github.com/vcu-labs/vcu/aeb"
	"github.com/vcu-labs/vcu/aps"
	"github.com/vcu-labs/vcu/hba"
	"github.com/vcu-labs/vcu/store"
	"github.com/vcu-labs/vcu/util"
)

// AssistSteerLimit is the maximum |steer| percent permitted in Assist mode.
const AssistSteerLimit = 80

// Pipeline is the control-cycle orchestrator. It owns the single APS
// instance for the process lifetime; Start/Stop are driven internally by
// observed mode transitions.
type Pipeline struct {
	store            *store.Store
	aps              *aps.APS
	aeb              *aeb.AEB
	hba              *hba.HBA
	sensorPeriodUs   int64
	assistSteerLimit int

	prevMode vcu.ControlMode
}

// New returns a Pipeline bound to store, with sensorPeriod used only to
// compute the APS per-channel staleness window (5 * sensorPeriod, per the
// specification). APS, AEB, and HBA are constructed with the
// specification's default tuning; override it via SetAssistSteerLimit,
// SetAEBParams, SetHBAParams, and SetAPSParams.
func New(s *store.Store, sensorPeriod time.Duration) *Pipeline {
	return &Pipeline{
		store:            s,
		aps:              aps.New(),
		aeb:              aeb.New(),
		hba:              hba.New(),
		sensorPeriodUs:   sensorPeriod.Microseconds(),
		assistSteerLimit: AssistSteerLimit,
		prevMode:         vcu.ModeAssist,
	}
}

// SetAssistSteerLimit overrides the default Assist-mode steer clamp, for
// callers that load it from configuration instead of accepting the
// specification's default.
func (p *Pipeline) SetAssistSteerLimit(limit int) {
	p.assistSteerLimit = limit
}

// SetAEBParams overrides the owned AEB evaluator's tuning, for callers
// that load it from configuration.
func (p *Pipeline) SetAEBParams(params aeb.Params) {
	p.aeb.SetParams(params)
}

// SetHBAParams overrides the owned HBA evaluator's tuning, for callers
// that load it from configuration.
func (p *Pipeline) SetHBAParams(params hba.Params) {
	p.hba.SetParams(params)
}

// SetAPSParams overrides the owned APS maneuver's tuning, for callers
// that load it from configuration. It must be called before the first
// Start (i.e. before Auto mode is ever entered), since APS applies a new
// WallThresholdMm only on its next reset while the other fields take
// effect on its next Step.
func (p *Pipeline) SetAPSParams(params aps.Params) {
	p.aps.SetParams(params)
}

// Tick runs one control cycle and publishes its result to the store. now
// is the monotonic-ish wall clock this cycle observes; it stamps the
// published command and drives APS's staleness arithmetic.
func (p *Pipeline) Tick(now time.Time) vcu.ActuatorCommand {
	snap := p.store.SnapshotInputs()
	nowMs := vcu.NowMs(now)

	if !snap.Engine.On {
		if p.aps.Active() {
			p.aps.Stop()
		}
		cmd := vcu.NullCommand(nowMs)
		p.store.PublishCommand(cmd)
		p.prevMode = snap.Mode
		return cmd
	}

	p.syncAPSLifecycle(snap.Mode)

	lowBeam, highBeam := p.hba.Decide(snap.Sensor.AmbientLux, true)

	throttle, steer, apsCompleted := p.drivingCommand(snap, now)

	frontMm := aeb.FrontDistanceMm(snap.Sensor.FrontToFMm, -1)
	_, brake := p.aeb.Evaluate(frontMm, throttle)

	cmd := vcu.ActuatorCommand{
		Throttle:        throttle,
		Steer:           steer,
		LowBeamOn:       lowBeam,
		HighBeamOn:      highBeam,
		AlertIntervalMs: vcu.AlertOff,
		TsMs:            nowMs,
	}

	if brake {
		cmd.Throttle = aeb.BrakeThrottle
		cmd.BuzzerOn = true
		cmd.BuzzerFrequencyHz = p.aeb.BuzzerHz()
		cmd.RearAlertOn = true
		cmd.AEBBrake = true
	}

	_ = apsCompleted // surfaced via p.aps.Phase() for diagnostics/logging.

	p.store.PublishCommand(cmd)
	p.prevMode = snap.Mode
	return cmd
}

// syncAPSLifecycle starts or stops the owned APS instance to track
// Manual/Assist<->Auto transitions: start() on entering Auto while
// inactive, stop() on any exit from Auto.
func (p *Pipeline) syncAPSLifecycle(mode vcu.ControlMode) {
	if mode == vcu.ModeAuto {
		if !p.aps.Active() {
			p.aps.Start()
		}
		return
	}
	if p.aps.Active() {
		p.aps.Stop()
	}
}

// drivingCommand determines this cycle's pre-AEB throttle/steer: from APS
// when in Auto mode (and APS is engaged), else from the manual/assist
// joystick driving law.
func (p *Pipeline) drivingCommand(snap store.Snapshot, now time.Time) (throttle, steer int, apsCompleted bool) {
	if snap.Mode == vcu.ModeAuto && p.aps.Active() {
		out := p.aps.Step(aps.Input{
			Front: aps.Channel{DistanceMm: snap.Sensor.FrontToFMm, TsUs: snap.Sensor.FrontTsUs},
			Left:  aps.Channel{DistanceMm: snap.Sensor.LeftUltraMm, TsUs: snap.Sensor.LeftTsUs},
			Right: aps.Channel{DistanceMm: snap.Sensor.RightUltraMm, TsUs: snap.Sensor.RightTsUs},
			Rear:  aps.Channel{DistanceMm: snap.Sensor.RearUltraMm, TsUs: snap.Sensor.RearTsUs},

			NowUs:          now.UnixMicro(),
			SensorPeriodUs: p.sensorPeriodUs,
		})
		steer = aps.MapRawToCommand(out.XRaw)
		throttle = aps.MapRawToCommand(out.YRaw)
		return throttle, steer, out.Completed
	}

	throttle = util.ClampInt((snap.Joystick.Y-vcu.JoystickNeutralY)*2, -100, 100)
	steer = util.ClampInt((snap.Joystick.X-vcu.JoystickNeutralX)*2, -100, 100)
	if snap.Mode == vcu.ModeAssist {
		steer = util.ClampInt(steer, -p.assistSteerLimit, p.assistSteerLimit)
	}
	return throttle, steer, false
}

// APSPhase exposes the owned APS instance's current phase, for the
// supervisor status line and diagnostics surface.
func (p *Pipeline) APSPhase() aps.Phase {
	return p.aps.Phase()
}

// APSActive exposes whether APS currently owns the driving command.
func (p *Pipeline) APSActive() bool {
	return p.aps.Active()
}
