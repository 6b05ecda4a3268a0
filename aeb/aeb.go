// Package aeb implements the Automatic Emergency Braking predictor: a
// forward-distance-and-speed-based brake override evaluated once per
// control cycle. The braking-distance polynomial is the calibrated,
// empirical model referenced by the specification; DefaultParams carries
// the coefficients as shipped, and a caller that overrides them via
// SetParams is responsible for having recalibrated the replacement.
package aeb

// State is the AEB classification for the current cycle.
type State int

const (
	// Normal: no unconditional brake override this cycle.
	Normal State = iota
	// Emergency: distance evidence demands an immediate brake override.
	Emergency
)

// String renders the state for log lines.
func (s State) String() string {
	if s == Emergency {
		return "emergency"
	}
	return "normal"
}

// Poly is the braking-distance polynomial's coefficients:
// num = A*v^2 + B*v + C, d_brake_mm = max(num,0) / Div.
type Poly struct {
	A, B, C, Div int
}

// Default tuning constants, named exactly as the specification's
// configuration constants.
const (
	CloseRangeMm = 100
	ToleranceMm  = 5

	polyA   = -27
	polyB   = 6496
	polyC   = -112642
	polyDiv = 1000

	BrakeThrottle = -100
	BrakeBuzzerHz = 500
)

// Params is the AEB instance's tunable configuration, normally seeded from
// DefaultParams and overridden from config.Config.AEB via SetParams.
type Params struct {
	CloseRangeMm int
	ToleranceMm  int
	Poly         Poly
	BuzzerHz     int
}

// DefaultParams returns the specification's as-shipped AEB tuning.
func DefaultParams() Params {
	return Params{
		CloseRangeMm: CloseRangeMm,
		ToleranceMm:  ToleranceMm,
		Poly:         Poly{A: polyA, B: polyB, C: polyC, Div: polyDiv},
		BuzzerHz:     BrakeBuzzerHz,
	}
}

// AEB is one Automatic Emergency Braking evaluator instance.
type AEB struct {
	params Params
}

// New returns an AEB evaluator seeded with DefaultParams.
func New() *AEB {
	return &AEB{params: DefaultParams()}
}

// SetParams overrides the evaluator's tuning, for callers that load it
// from configuration instead of accepting the specification's defaults.
func (a *AEB) SetParams(p Params) {
	a.params = p
}

// BuzzerHz reports the configured Emergency-state buzzer tone, for
// callers building the actuator command.
func (a *AEB) BuzzerHz() int {
	return a.params.BuzzerHz
}

// BrakingDistanceMm evaluates the calibrated empirical polynomial for a
// given forward speed (0-100, throttle percent clamped to non-negative),
// returning the integer braking distance in millimeters. The polynomial
// is never negative: a forward_speed outside its well-conditioned range
// floors at zero rather than producing a negative braking distance.
func (a *AEB) BrakingDistanceMm(forwardSpeed int) int {
	v := forwardSpeed
	p := a.params.Poly
	num := p.A*v*v + p.B*v + p.C
	if num < 0 {
		num = 0
	}
	return num / p.Div
}

// Evaluate runs the AEB decision for one cycle. distanceMm is the fused
// front distance (ToF preferred, else ultrasonic, else -1 if no channel
// is available); throttle is the driving-law throttle command before any
// AEB override. It returns the classification state and whether this
// cycle must brake.
func (a *AEB) Evaluate(distanceMm, throttle int) (State, bool) {
	if distanceMm < 0 {
		return Normal, false
	}
	if distanceMm <= a.params.CloseRangeMm+a.params.ToleranceMm {
		return Emergency, true
	}
	forwardSpeed := throttle
	if forwardSpeed < 0 {
		forwardSpeed = 0
	}
	if forwardSpeed <= 0 {
		return Normal, false
	}
	dBrake := a.BrakingDistanceMm(forwardSpeed)
	if distanceMm <= dBrake+a.params.CloseRangeMm {
		return Emergency, true
	}
	return Normal, false
}

// FrontDistanceMm fuses the front-facing distance channels into the
// single value Evaluate consumes: ToF is preferred when available, else
// the front ultrasonic channel converted from centimeters to millimeters
// (x10), else -1 ("unavailable" — no evidence of an obstacle). This
// conversion carries no tunable parameters, so it remains a free function.
func FrontDistanceMm(frontToFMm, frontUltraCm int) int {
	if frontToFMm >= 0 {
		return frontToFMm
	}
	if frontUltraCm >= 0 {
		return frontUltraCm * 10
	}
	return -1
}
