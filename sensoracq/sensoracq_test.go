package sensoracq_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/vcu-labs/vcu"
	"github.com/vcu-labs/vcu/sensoracq"
	"github.com/vcu-labs/vcu/store"
)

type fixedDriver struct {
	sample vcu.SensorSample
}

func (f fixedDriver) Sample(ctx context.Context) (vcu.SensorSample, error) {
	return f.sample, nil
}

type failingDriver struct {
	calls int
}

func (f *failingDriver) Sample(ctx context.Context) (vcu.SensorSample, error) {
	f.calls++
	return vcu.SensorSample{}, errors.New("device unavailable")
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestCyclePublishesDriverSample(t *testing.T) {
	s := store.New()
	driver := fixedDriver{sample: vcu.SensorSample{AmbientLux: 42, FrontToFMm: 777}}
	a := sensoracq.New(s, driver, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	a.Run(ctx)

	got := s.SnapshotInputs().Sensor
	if got.AmbientLux != 42 || got.FrontToFMm != 777 {
		t.Errorf("expected the driver's sample to be published, got %+v", got)
	}
}

func TestCycleLeavesPreviousSampleOnRepeatedFailure(t *testing.T) {
	s := store.New()
	s.MergeSensor(vcu.SensorSample{AmbientLux: 10, FrontToFMm: 10})
	driver := &failingDriver{}
	a := sensoracq.New(s, driver, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	a.Run(ctx)

	if driver.calls == 0 {
		t.Fatal("expected the failing driver to have been polled at least once")
	}

	got := s.SnapshotInputs().Sensor
	if got.AmbientLux != 10 || got.FrontToFMm != 10 {
		t.Errorf("expected the previous sample to survive a failed read, got %+v", got)
	}
}

func TestCyclePreservesTimestampForChannelReportedUnavailable(t *testing.T) {
	s := store.New()
	s.MergeSensor(vcu.SensorSample{FrontToFMm: 400, RearUltraMm: 400, FrontTsUs: 1000, RearTsUs: 1000})

	driver := fixedDriver{sample: vcu.SensorSample{
		FrontToFMm: 450, FrontTsUs: 2000,
		RearUltraMm: -1, RearTsUs: 2000,
	}}
	a := sensoracq.New(s, driver, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	a.Run(ctx)

	got := s.SnapshotInputs().Sensor
	if got.FrontToFMm != 450 || got.FrontTsUs != 2000 {
		t.Errorf("expected the refreshed front channel to adopt the new distance and timestamp, got %+v", got)
	}
	if got.RearUltraMm != -1 {
		t.Errorf("expected the unavailable rear channel to report -1, got %d", got.RearUltraMm)
	}
	if got.RearTsUs != 1000 {
		t.Errorf("expected the unavailable rear channel's timestamp to stay at its last valid reading, got %d", got.RearTsUs)
	}
}

func TestSimDriverProducesCloseRangePhase(t *testing.T) {
	// the simulated waveform's close-range window starts at phase
	// [5,8)s; picking a start time 5.5s in the past lands inside it.
	d := sensoracq.NewSimDriver(time.Now().Add(-5500 * time.Millisecond))
	sample, err := d.Sample(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sample.FrontToFMm != 150 {
		t.Errorf("expected the close-range phase to report front_tof_mm=150, got %d", sample.FrontToFMm)
	}
}
