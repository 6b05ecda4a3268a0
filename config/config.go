/*Package config loads the vehicle control unit's compile-time-default
constants as an overridable YAML configuration, the way cmd/multiserver
loads its Config in the wider device-control codebase this project grew
out of: defaults are seeded from the Go struct itself via koanf's structs
provider, then overlaid by an optional YAML file, with a missing file
silently tolerated.
*/
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
)

// Periods holds the process's fixed cycle periods, in milliseconds.
type Periods struct {
	SensorMs  int `koanf:"sensor_ms" yaml:"sensor_ms"`
	JoyMs     int `koanf:"joy_ms" yaml:"joy_ms"`
	ControlMs int `koanf:"control_ms" yaml:"control_ms"`
	CommMs    int `koanf:"comm_ms" yaml:"comm_ms"`
	LogMs     int `koanf:"log_ms" yaml:"log_ms"`
}

// HBA holds High-Beam Assist tuning.
type HBA struct {
	LuxThreshold int `koanf:"lux_threshold" yaml:"lux_threshold"`
}

// AEBPoly holds the calibrated braking-distance polynomial's coefficients
// and divisor, num(v) = A*v^2 + B*v + C, dist_mm = num(v)/Div.
type AEBPoly struct {
	A   int `koanf:"a" yaml:"a"`
	B   int `koanf:"b" yaml:"b"`
	C   int `koanf:"c" yaml:"c"`
	Div int `koanf:"div" yaml:"div"`
}

// AEB holds Automatic Emergency Braking tuning.
type AEB struct {
	CloseRangeMm int     `koanf:"close_range_mm" yaml:"close_range_mm"`
	ToleranceMm  int     `koanf:"tolerance_mm" yaml:"tolerance_mm"`
	Poly         AEBPoly `koanf:"poly" yaml:"poly"`
	BuzzerHz     int     `koanf:"buzzer_hz" yaml:"buzzer_hz"`
}

// APS holds Automatic Parking System tuning.
type APS struct {
	WallThresholdMm int     `koanf:"wall_threshold_mm" yaml:"wall_threshold_mm"`
	MinSpaceCm      int     `koanf:"min_space_cm" yaml:"min_space_cm"`
	SpeedCmPerMs    float64 `koanf:"speed_cm_per_ms" yaml:"speed_cm_per_ms"`
	RearSafetyMinMm int     `koanf:"rear_safety_min_mm" yaml:"rear_safety_min_mm"`
	RearSafetyMaxMm int     `koanf:"rear_safety_max_mm" yaml:"rear_safety_max_mm"`
	RotateLimit     int     `koanf:"rotate_limit" yaml:"rotate_limit"`
	MaxAgeCycles    int     `koanf:"max_age_cycles" yaml:"max_age_cycles"`
}

// Diag holds the opt-in diagnostics HTTP surface's settings.
type Diag struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	Addr    string `koanf:"addr" yaml:"addr"`
}

// Config is the vehicle control unit's full set of overridable
// constants. Every field has a default matching the specification; a
// deployment supplies only the subset it wants to change.
type Config struct {
	Periods Periods `koanf:"periods" yaml:"periods"`
	HBA     HBA     `koanf:"hba" yaml:"hba"`
	AEB     AEB     `koanf:"aeb" yaml:"aeb"`
	APS     APS     `koanf:"aps" yaml:"aps"`

	AssistSteerLimit int  `koanf:"assist_steer_limit" yaml:"assist_steer_limit"`
	Diag             Diag `koanf:"diag" yaml:"diag"`
}

// Default returns the specification's compile-time-default constants.
func Default() Config {
	return Config{
		Periods: Periods{SensorMs: 20, JoyMs: 20, ControlMs: 20, CommMs: 20, LogMs: 500},
		HBA:     HBA{LuxThreshold: 50},
		AEB: AEB{
			CloseRangeMm: 100,
			ToleranceMm:  5,
			Poly:         AEBPoly{A: -27, B: 6496, C: -112642, Div: 1000},
			BuzzerHz:     500,
		},
		APS: APS{
			WallThresholdMm: 100,
			MinSpaceCm:      150,
			SpeedCmPerMs:    0.5,
			RearSafetyMinMm: 0,
			RearSafetyMaxMm: 100,
			RotateLimit:     30,
			MaxAgeCycles:    5,
		},
		AssistSteerLimit: 80,
		Diag:             Diag{Enabled: false, Addr: "127.0.0.1:8765"},
	}
}

// SensorPeriod, JoyPeriod, ControlPeriod, CommPeriod, and LogPeriod
// convert the millisecond fields to time.Duration for direct use by the
// periodic activities.
func (c Config) SensorPeriod() time.Duration  { return time.Duration(c.Periods.SensorMs) * time.Millisecond }
func (c Config) JoyPeriod() time.Duration     { return time.Duration(c.Periods.JoyMs) * time.Millisecond }
func (c Config) ControlPeriod() time.Duration { return time.Duration(c.Periods.ControlMs) * time.Millisecond }
func (c Config) CommPeriod() time.Duration    { return time.Duration(c.Periods.CommMs) * time.Millisecond }
func (c Config) LogPeriod() time.Duration     { return time.Duration(c.Periods.LogMs) * time.Millisecond }

// Load seeds a koanf instance with Default()'s values, then overlays
// path if it exists. A missing file is not an error; any other load
// failure (malformed YAML, permissions) is returned to the caller.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, err
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !strings.Contains(err.Error(), "no such") {
			return Config{}, err
		}
	}
	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, err
	}
	return c, nil
}
