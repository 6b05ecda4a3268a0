// Package aps implements the Automatic Parking System: a three-phase
// state machine that autonomously executes a parallel-park maneuver while
// active, gated on fresh left/rear distance evidence. It is active only
// in Auto mode; the control pipeline owns a single instance and drives
// Start/Stop across mode transitions.
package aps

// Phase is one of the three maneuver phases.
type Phase int

const (
	// SpaceDetection drives forward, looking for a parking space long
	// enough on the left.
	SpaceDetection Phase = iota
	// ParkingExecution reverses into the detected space.
	ParkingExecution
	// Completed holds position; the maneuver is done.
	Completed
)

func (p Phase) String() string {
	switch p {
	case SpaceDetection:
		return "space-detection"
	case ParkingExecution:
		return "parking-execution"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Tunable constants, named exactly as the specification's configuration
// constants. DefaultParams carries these as APS's as-shipped tuning;
// SetParams overrides them from configuration.
const (
	WallThresholdMm = 100
	MinSpaceCm      = 150
	SpeedCmPerMs    = 0.5
	RearSafetyMinMm = 0
	RearSafetyMaxMm = 100
	RotateLimit     = 30
	MaxAgeCycles    = 5

	neutralRaw = 50
)

// Params is the APS instance's tunable configuration, normally seeded
// from DefaultParams and overridden from config.Config.APS via SetParams.
type Params struct {
	WallThresholdMm int
	MinSpaceCm      int
	SpeedCmPerMs    float64
	RearSafetyMinMm int
	RearSafetyMaxMm int
	RotateLimit     int
	MaxAgeCycles    int64
}

// DefaultParams returns the specification's as-shipped APS tuning.
func DefaultParams() Params {
	return Params{
		WallThresholdMm: WallThresholdMm,
		MinSpaceCm:      MinSpaceCm,
		SpeedCmPerMs:    SpeedCmPerMs,
		RearSafetyMinMm: RearSafetyMinMm,
		RearSafetyMaxMm: RearSafetyMaxMm,
		RotateLimit:     RotateLimit,
		MaxAgeCycles:    MaxAgeCycles,
	}
}

// Channel is one distance channel's current reading and the microsecond
// timestamp it was last updated, used for the per-cycle freshness gate.
type Channel struct {
	DistanceMm int
	TsUs       int64
}

// Input is everything one APS cycle needs: the four distance channels,
// the current time, and the sensor acquisition period (both in
// microseconds) used to compute the maximum permitted channel age.
type Input struct {
	Front, Left, Right, Rear Channel
	NowUs                    int64
	SensorPeriodUs           int64
}

// Output is the raw, joystick-space command the pipeline must map through
// the manual driving law exactly as if it had come from the operator, plus
// whether the maneuver has completed.
type Output struct {
	XRaw      int
	YRaw      int
	Completed bool
}

func neutralOutput() Output {
	return Output{XRaw: neutralRaw, YRaw: neutralRaw}
}

// wallTracker implements the WallDetected/SpaceDetected binary classifier
// shared by SpaceDetection and the ParkingExecution align sub-state: it
// maintains a monotonically minimized reference distance and reports
// edges against referenceMm+WallThresholdMm.
type wallTracker struct {
	referenceMm     int
	wallThresholdMm int
	isSpace         bool
	armed           bool
}

// noMinimumYetMm stands in for "no left distance observed yet"; it is far
// larger than any plausible sensor reading but small enough that adding
// a wall threshold to it can never overflow int on any supported platform.
const noMinimumYetMm = 1 << 30

func newWallTracker(wallThresholdMm int) wallTracker {
	return wallTracker{referenceMm: noMinimumYetMm, wallThresholdMm: wallThresholdMm}
}

// update folds in a fresh left-distance reading and reports whether this
// call is a WallDetected->SpaceDetected ("rose") or SpaceDetected->
// WallDetected ("fell") transition.
func (w *wallTracker) update(leftMm int) (rose, fell bool) {
	nowSpace := leftMm > w.referenceMm+w.wallThresholdMm
	if w.armed {
		if nowSpace && !w.isSpace {
			rose = true
		} else if !nowSpace && w.isSpace {
			fell = true
		}
	}
	w.armed = true
	w.isSpace = nowSpace
	if leftMm < w.referenceMm {
		w.referenceMm = leftMm
	}
	return rose, fell
}

// APS is one parallel-parking state machine instance.
type APS struct {
	active bool
	phase  Phase
	params Params

	wall       wallTracker
	gapStartUs int64
	gapOpen    bool

	sub         int // 1 = align, 2 = rotate-in, within ParkingExecution
	sub2Counter int
}

// New returns an inactive APS in its initial (SpaceDetection) state,
// seeded with DefaultParams.
func New() *APS {
	a := &APS{params: DefaultParams()}
	a.reset()
	return a
}

// SetParams overrides the maneuver's tuning, for callers that load it
// from configuration instead of accepting the specification's defaults.
// Step reads every field except WallThresholdMm directly, so those take
// effect on the next Step; WallThresholdMm is captured by the wall
// tracker and takes effect on the next reset (Start/Stop). It must not
// be called mid-maneuver.
func (a *APS) SetParams(p Params) {
	a.params = p
}

func (a *APS) reset() {
	a.phase = SpaceDetection
	a.wall = newWallTracker(a.params.WallThresholdMm)
	a.gapStartUs = 0
	a.gapOpen = false
	a.sub = 0
	a.sub2Counter = 0
}

// Start begins a new maneuver attempt: called on a Manual/Assist->Auto
// transition, or when Auto is entered while APS is inactive. It always
// re-arms the phase/sub-state machine from scratch.
func (a *APS) Start() {
	a.reset()
	a.active = true
}

// Stop ends the current attempt and returns APS to its exact
// post-construction state: called on any exit from Auto mode, and on
// engine-off.
func (a *APS) Stop() {
	a.reset()
	a.active = false
}

// Active reports whether APS currently owns the driving command.
func (a *APS) Active() bool {
	return a.active
}

// Phase reports the current maneuver phase (for diagnostics/logging).
func (a *APS) Phase() Phase {
	return a.phase
}

func freshAndPresent(c Channel, nowUs, maxAgeUs int64, requirePresent bool) bool {
	if requirePresent && c.DistanceMm < 0 {
		return false
	}
	return nowUs-c.TsUs <= maxAgeUs
}

// Step runs one APS cycle. Callers must only call Step when Active() and
// the vehicle is in Auto mode; Step does not check either.
func (a *APS) Step(in Input) Output {
	maxAgeUs := a.params.MaxAgeCycles * in.SensorPeriodUs

	if in.Left.DistanceMm < 0 || in.Rear.DistanceMm < 0 {
		return neutralOutput()
	}
	if !freshAndPresent(in.Left, in.NowUs, maxAgeUs, true) || !freshAndPresent(in.Rear, in.NowUs, maxAgeUs, true) {
		return neutralOutput()
	}

	switch a.phase {
	case SpaceDetection:
		// Front/right are not consulted by this phase's logic, and an
		// absent or aging front channel must not block space detection
		// (see the "APS engage with front unavailable" design decision).
		return a.stepSpaceDetection(in)
	case ParkingExecution:
		// Parking execution is the safety-critical reversing maneuver;
		// it additionally requires the front and right channels to be
		// fresh before it will advance, even though neither distance is
		// read directly by the align/rotate logic below.
		if !freshAndPresent(in.Front, in.NowUs, maxAgeUs, false) || !freshAndPresent(in.Right, in.NowUs, maxAgeUs, false) {
			return neutralOutput()
		}
		return a.stepParkingExecution(in)
	case Completed:
		return Output{XRaw: neutralRaw, YRaw: neutralRaw, Completed: true}
	default:
		return neutralOutput()
	}
}

func (a *APS) stepSpaceDetection(in Input) Output {
	rose, fell := a.wall.update(in.Left.DistanceMm)
	if rose {
		a.gapStartUs = in.NowUs
		a.gapOpen = true
	}
	if fell && a.gapOpen {
		measuredSpaceCm := float64(in.NowUs-a.gapStartUs) / 1000.0 * a.params.SpeedCmPerMs
		a.gapOpen = false
		if measuredSpaceCm >= float64(a.params.MinSpaceCm) {
			a.phase = ParkingExecution
			a.wall = newWallTracker(a.params.WallThresholdMm)
			a.sub = 1
			return Output{XRaw: 50, YRaw: 35}
		}
	}
	return Output{XRaw: 50, YRaw: 70}
}

func (a *APS) stepParkingExecution(in Input) Output {
	switch a.sub {
	case 1:
		rose, _ := a.wall.update(in.Left.DistanceMm)
		if rose {
			a.sub = 2
			a.sub2Counter = 0
			return Output{XRaw: 50, YRaw: 50}
		}
		return Output{XRaw: 50, YRaw: 35}
	case 2:
		if a.sub2Counter < a.params.RotateLimit {
			a.sub2Counter++
			return Output{XRaw: 64, YRaw: 45}
		}
		if in.Rear.DistanceMm >= a.params.RearSafetyMinMm && in.Rear.DistanceMm <= a.params.RearSafetyMaxMm {
			a.phase = Completed
			return Output{XRaw: 50, YRaw: 50, Completed: true}
		}
		return Output{XRaw: 50, YRaw: 35}
	default:
		// Defensive: ParkingExecution always enters with sub=1.
		a.sub = 1
		return Output{XRaw: 50, YRaw: 35}
	}
}

// MapRawToCommand converts an [0,99] joystick-space raw value to the
// [-100,100] actuator-space value using the APS output mapping formula
// v -> (clamp(v,0,99)*200/99) - 100, integer division per the
// specification.
func MapRawToCommand(v int) int {
	if v < 0 {
		v = 0
	}
	if v > 99 {
		v = 99
	}
	return (v*200)/99 - 100
}
