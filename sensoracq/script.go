package sensoracq

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vcu-labs/vcu"
)

// ScriptStep is one entry of a scripted sensor fixture, replayed in
// order and then held at its last step once exhausted.
type ScriptStep struct {
	AmbientLux   int `yaml:"ambient_lux"`
	FrontToFMm   int `yaml:"front_tof_mm"`
	LeftUltraMm  int `yaml:"left_ultra_mm"`
	RightUltraMm int `yaml:"right_ultra_mm"`
	RearUltraMm  int `yaml:"rear_ultra_mm"`
}

// ScriptDriver replays a fixed, YAML-loaded sequence of sensor samples,
// advancing one step per Sample call; it exists for tests and demos that
// need a specific, repeatable sequence rather than SimDriver's
// perpetual waveform.
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
		return nil, fmt.Errorf("sensoracq: parsing script %s: %w", path, err)
	}
	if len(doc.Steps) == 0 {
		return nil, fmt.Errorf("sensoracq: script %s has no steps", path)
	}
	return &ScriptDriver{steps: doc.Steps}, nil
}

// Sample implements Driver, advancing to the next step each call and
// holding at the last step once the script is exhausted. A step may mark
// a channel unavailable by giving it a negative distance (e.g.
// `rear_ultra_mm: -1`); that channel's timestamp is left zero, so
// Store.MergeSensor preserves the channel's last valid timestamp instead
// of refreshing it to now.
func (d *ScriptDriver) Sample(ctx context.Context) (vcu.SensorSample, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	step := d.steps[d.idx]
	if d.idx < len(d.steps)-1 {
		d.idx++
	}

	now := time.Now()
	tsUs := now.UnixMicro()
	sample := vcu.SensorSample{
		AmbientLux:   step.AmbientLux,
		FrontToFMm:   step.FrontToFMm,
		LeftUltraMm:  step.LeftUltraMm,
		RightUltraMm: step.RightUltraMm,
		RearUltraMm:  step.RearUltraMm,
		TsMs:         vcu.NowMs(now),
	}
	if step.FrontToFMm >= 0 {
		sample.FrontTsUs = tsUs
	}
	if step.LeftUltraMm >= 0 {
		sample.LeftTsUs = tsUs
	}
	if step.RightUltraMm >= 0 {
		sample.RightTsUs = tsUs
	}
	if step.RearUltraMm >= 0 {
		sample.RearTsUs = tsUs
	}
	return sample, nil
}
