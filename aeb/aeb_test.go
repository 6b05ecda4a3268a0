package aeb_test

import (
	"testing"

	"github.com/vcu-labs/vcu/aeb"
)

func TestEvaluateNoEvidence(t *testing.T) {
	a := aeb.New()
	state, brake := a.Evaluate(-1, 100)
	if brake || state != aeb.Normal {
		t.Errorf("expected unavailable distance to yield Normal/false, got %v/%v", state, brake)
	}
}

func TestEvaluateCloseRange(t *testing.T) {
	a := aeb.New()
	// S2 — AEB close range: front_tof_mm=80, full forward throttle.
	state, brake := a.Evaluate(80, 100)
	if !brake || state != aeb.Emergency {
		t.Errorf("expected close-range Emergency/true, got %v/%v", state, brake)
	}
}

func TestEvaluateCloseRangeToleranceBoundary(t *testing.T) {
	a := aeb.New()
	if state, brake := a.Evaluate(aeb.CloseRangeMm+aeb.ToleranceMm, 50); !brake || state != aeb.Emergency {
		t.Errorf("expected boundary distance (105mm) to brake, got %v/%v", state, brake)
	}
	if state, brake := a.Evaluate(aeb.CloseRangeMm+aeb.ToleranceMm+1, 0); brake || state != aeb.Normal {
		t.Errorf("expected 106mm with zero speed to be Normal, got %v/%v", state, brake)
	}
}

func TestEvaluateStationary(t *testing.T) {
	a := aeb.New()
	state, brake := a.Evaluate(1000, 0)
	if brake || state != aeb.Normal {
		t.Errorf("expected stationary vehicle to never brake, got %v/%v", state, brake)
	}
	state, brake = a.Evaluate(1000, -50)
	if brake || state != aeb.Normal {
		t.Errorf("expected reversing vehicle to never AEB-brake, got %v/%v", state, brake)
	}
}

func TestBrakingDistancePolynomialBoundary(t *testing.T) {
	a := aeb.New()
	// S3 — joy.y=80 -> raw throttle 60 -> v=60.
	// num = -27*3600 + 6496*60 - 112642 = 179918, d_brake = 179.
	if got := a.BrakingDistanceMm(60); got != 179 {
		t.Fatalf("expected BrakingDistanceMm(60)=179, got %d", got)
	}
	threshold := 179 + aeb.CloseRangeMm // 279mm

	state, brake := a.Evaluate(300, 60)
	if brake || state != aeb.Normal {
		t.Errorf("expected 300mm (beyond %dmm threshold) to be Normal, got %v/%v", threshold, state, brake)
	}
	state, brake = a.Evaluate(270, 60)
	if !brake || state != aeb.Emergency {
		t.Errorf("expected 270mm (within %dmm threshold) to be Emergency, got %v/%v", threshold, state, brake)
	}
}

func TestFrontDistanceMmFusion(t *testing.T) {
	if got := aeb.FrontDistanceMm(42, 99); got != 42 {
		t.Errorf("expected ToF to be preferred, got %d", got)
	}
	if got := aeb.FrontDistanceMm(-1, 12); got != 120 {
		t.Errorf("expected ultrasonic cm->mm conversion (x10), got %d", got)
	}
	if got := aeb.FrontDistanceMm(-1, -1); got != -1 {
		t.Errorf("expected -1 when no front channel is available, got %d", got)
	}
}

func TestSetParamsOverridesTuning(t *testing.T) {
	a := aeb.New()
	a.SetParams(aeb.Params{
		CloseRangeMm: 200,
		ToleranceMm:  0,
		Poly:         aeb.Poly{A: 0, B: 0, C: 0, Div: 1},
		BuzzerHz:     700,
	})
	if state, brake := a.Evaluate(200, 0); !brake || state != aeb.Emergency {
		t.Errorf("expected overridden CloseRangeMm to govern close-range braking, got %v/%v", state, brake)
	}
	if got := a.BuzzerHz(); got != 700 {
		t.Errorf("expected BuzzerHz to reflect the overridden params, got %d", got)
	}
}
