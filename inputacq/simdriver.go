package inputacq

import (
	"context"
	"time"

	"github.com/vcu-labs/vcu"
)

// SimDriver is a Driver that always reports the joystick at rest, for
// development and tests without an operator input device attached.
type SimDriver struct{}

// Read implements Driver.
func (SimDriver) Read(ctx context.Context) (vcu.JoystickInput, error) {
	return vcu.NeutralJoystick(vcu.NowMs(time.Now())), nil
}
