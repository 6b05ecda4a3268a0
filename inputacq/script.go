package inputacq

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vcu-labs/vcu"
)

// ScriptStep is one entry of a scripted joystick fixture.
type ScriptStep struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// ScriptDriver replays a fixed, YAML-loaded sequence of joystick inputs,
// advancing one step per Read call and holding at the last step once
// exhausted.
type ScriptDriver struct {
	mu    sync.Mutex
	steps []ScriptStep
	idx   int
}

// LoadScriptYAML reads a YAML file containing a top-level `steps:` list
// of ScriptStep entries.
func LoadScriptYAML(path string) (*ScriptDriver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Steps []ScriptStep `yaml:"steps"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("inputacq: parsing script %s: %w", path, err)
	}
	if len(doc.Steps) == 0 {
		return nil, fmt.Errorf("inputacq: script %s has no steps", path)
	}
	return &ScriptDriver{steps: doc.Steps}, nil
}

// Read implements Driver.
func (d *ScriptDriver) Read(ctx context.Context) (vcu.JoystickInput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	step := d.steps[d.idx]
	if d.idx < len(d.steps)-1 {
		d.idx++
	}
	return vcu.JoystickInput{X: step.X, Y: step.Y, TsMs: vcu.NowMs(time.Now())}, nil
}
