package sensoracq

import (
	"context"
	"time"

	"github.com/vcu-labs/vcu"
)

// SimDriver is a deterministic Driver that drives a repeating waveform
// through the sensor channels, for development and tests without real
// hardware attached. Its 20-second cycle briefly narrows the front
// distance twice (to exercise Automatic Emergency Braking), dims the
// ambient light for the back half of the cycle (to exercise High-Beam
// Assist), and drops the rear channel out entirely for a short window (to
// exercise the per-channel staleness gate APS depends on), mirroring the
// stub waveform this acquisition loop was built to replace.
type SimDriver struct {
	start time.Time
}

// NewSimDriver returns a SimDriver phased from t0.
func NewSimDriver(t0 time.Time) *SimDriver {
	return &SimDriver{start: t0}
}

// Sample implements Driver. A channel reported unavailable this cycle
// carries its distance as -1; its TsUs field is left zero since the
// caller (Acquirer, via Store.MergeSensor) ignores a channel's incoming
// timestamp whenever that channel's distance is negative, preserving
// whatever timestamp the channel last reported while valid.
func (d *SimDriver) Sample(ctx context.Context) (vcu.SensorSample, error) {
	now := time.Now()
	elapsedMs := now.Sub(d.start).Milliseconds()
	phase := (elapsedMs / 1000) % 20

	frontMm := 1000
	switch {
	case phase >= 5 && phase < 8:
		frontMm = 150
	case phase >= 12 && phase < 16:
		frontMm = 300
	}

	lux := 200
	if phase >= 10 {
		lux = 5
	}

	tsUs := now.UnixMicro()
	sample := vcu.SensorSample{
		AmbientLux:   lux,
		FrontToFMm:   frontMm,
		LeftUltraMm:  800,
		RightUltraMm: 800,
		RearUltraMm:  800,
		TsMs:         vcu.NowMs(now),
		FrontTsUs:    tsUs,
		LeftTsUs:     tsUs,
		RightTsUs:    tsUs,
		RearTsUs:     tsUs,
	}

	// rear ultrasonic drops out briefly each cycle.
	if phase >= 17 && phase < 18 {
		sample.RearUltraMm = -1
		sample.RearTsUs = 0
	}

	return sample, nil
}
