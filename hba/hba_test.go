package hba_test

import (
	"testing"

	"github.com/vcu-labs/vcu/hba"
)

func TestDecideDark(t *testing.T) {
	h := hba.New()
	// S5 — HBA dark: ambient_lux=5, engine_on=true => low+high beam on.
	low, high := h.Decide(5, true)
	if !low || !high {
		t.Errorf("expected both beams on in the dark, got low=%v high=%v", low, high)
	}
}

func TestDecideBright(t *testing.T) {
	h := hba.New()
	low, high := h.Decide(500, true)
	if !low {
		t.Error("expected low beam on whenever engine is on")
	}
	if high {
		t.Error("expected high beam off in bright ambient light")
	}
}

func TestDecideEngineOff(t *testing.T) {
	h := hba.New()
	low, _ := h.Decide(5, false)
	if low {
		t.Error("expected low beam off when engine is off")
	}
}

func TestDecideThresholdBoundary(t *testing.T) {
	h := hba.New()
	cases := []struct {
		lux      int
		wantHigh bool
	}{
		{hba.LuxThreshold - 1, true},
		{hba.LuxThreshold, false},
		{hba.LuxThreshold + 1, false},
	}
	for _, c := range cases {
		_, high := h.Decide(c.lux, true)
		if high != c.wantHigh {
			t.Errorf("lux=%d: expected high=%v got %v", c.lux, c.wantHigh, high)
		}
	}
}

func TestSetParamsOverridesThreshold(t *testing.T) {
	h := hba.New()
	h.SetParams(hba.Params{LuxThreshold: 10})
	if _, high := h.Decide(20, true); high {
		t.Error("expected 20 lux to be bright under an overridden threshold of 10")
	}
	if _, high := h.Decide(5, true); !high {
		t.Error("expected 5 lux to be dark under an overridden threshold of 10")
	}
}
