package inputacq_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/vcu-labs/vcu"
	"github.com/vcu-labs/vcu/inputacq"
	"github.com/vcu-labs/vcu/store"
)

type fixedDriver struct {
	in vcu.JoystickInput
}

func (f fixedDriver) Read(ctx context.Context) (vcu.JoystickInput, error) {
	return f.in, nil
}

type failingDriver struct{ calls int }

func (f *failingDriver) Read(ctx context.Context) (vcu.JoystickInput, error) {
	f.calls++
	return vcu.JoystickInput{}, errors.New("device unavailable")
}

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestCyclePublishesDriverInput(t *testing.T) {
	s := store.New()
	driver := fixedDriver{in: vcu.JoystickInput{X: 80, Y: 20}}
	a := inputacq.New(s, driver, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	a.Run(ctx)

	got := s.SnapshotInputs().Joystick
	if got.X != 80 || got.Y != 20 {
		t.Errorf("expected the driver's input to be published, got %+v", got)
	}
}

func TestCycleLeavesPreviousInputOnRepeatedFailure(t *testing.T) {
	s := store.New()
	s.SetJoystick(vcu.JoystickInput{X: 70, Y: 30})
	driver := &failingDriver{}
	a := inputacq.New(s, driver, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	a.Run(ctx)

	if driver.calls == 0 {
		t.Fatal("expected the failing driver to have been polled at least once")
	}
	got := s.SnapshotInputs().Joystick
	if got.X != 70 || got.Y != 30 {
		t.Errorf("expected the previous input to survive a failed read, got %+v", got)
	}
}

func TestSimDriverReportsNeutral(t *testing.T) {
	d := inputacq.SimDriver{}
	in, err := d.Read(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.X != vcu.JoystickNeutralX || in.Y != vcu.JoystickNeutralY {
		t.Errorf("expected neutral joystick, got %+v", in)
	}
}
