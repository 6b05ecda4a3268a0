/*Command vcu runs the vehicle control unit: Sensor Acquisition, Joystick
Acquisition, the Control Pipeline, and Command Egress as independent
periodic goroutines sharing one Store, plus an optional diagnostics HTTP
surface. It is configured the way cmd/multiserver is in the wider
device-control codebase this project grew out of: a YAML file overlays
compiled-in defaults, and the binary is a small subcommand dispatcher
rather than taking flags.
*/
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	yml "gopkg.in/yaml.v2"

	"github.com/vcu-labs/vcu/aeb"
	"github.com/vcu-labs/vcu/aps"
	"github.com/vcu-labs/vcu/config"
	"github.com/vcu-labs/vcu/control"
	"github.com/vcu-labs/vcu/diagctl"
	"github.com/vcu-labs/vcu/egress"
	"github.com/vcu-labs/vcu/egress/someipclient"
	"github.com/vcu-labs/vcu/hba"
	"github.com/vcu-labs/vcu/inputacq"
	"github.com/vcu-labs/vcu/sensoracq"
	"github.com/vcu-labs/vcu/store"
	"github.com/vcu-labs/vcu/supervisor"
)

// Version is the build version, typically injected via ldflags.
var Version = "dev"

// ConfigFileName is the default configuration file vcu looks for
// relative to the working directory.
const ConfigFileName = "vcu.yml"

const helpBlurb = `vcu is configured via its .yaml file. For a primer on YAML, see
https://yaml.org/start.html

When no configuration is provided, the specification's defaults are used.
The command mkconf generates the configuration file with the default values.
There is no need to do this unless you want to start from the prepopulated
defaults when making a config file.`

func root() {
	str := `vcu runs the vehicle control unit core loop: acquisition, control, and
actuator egress, sharing one in-process store.

Usage:
	vcu <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	fmt.Println(helpBlurb)
}

func mkconf() {
	c := config.Default()
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := yml.NewEncoder(f).Encode(c); err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c, err := config.Load(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	if err := yml.NewEncoder(os.Stdout).Encode(c); err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("vcu version %v\n", Version)
}

func run() {
	cfg, err := config.Load(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}

	logger := log.New(os.Stdout, "vcu: ", log.LstdFlags)

	s := store.New()
	pipeline := control.New(s, cfg.SensorPeriod())
	pipeline.SetAssistSteerLimit(cfg.AssistSteerLimit)
	pipeline.SetHBAParams(hba.Params{LuxThreshold: cfg.HBA.LuxThreshold})
	pipeline.SetAEBParams(aeb.Params{
		CloseRangeMm: cfg.AEB.CloseRangeMm,
		ToleranceMm:  cfg.AEB.ToleranceMm,
		Poly:         aeb.Poly{A: cfg.AEB.Poly.A, B: cfg.AEB.Poly.B, C: cfg.AEB.Poly.C, Div: cfg.AEB.Poly.Div},
		BuzzerHz:     cfg.AEB.BuzzerHz,
	})
	pipeline.SetAPSParams(aps.Params{
		WallThresholdMm: cfg.APS.WallThresholdMm,
		MinSpaceCm:      cfg.APS.MinSpaceCm,
		SpeedCmPerMs:    cfg.APS.SpeedCmPerMs,
		RearSafetyMinMm: cfg.APS.RearSafetyMinMm,
		RearSafetyMaxMm: cfg.APS.RearSafetyMaxMm,
		RotateLimit:     cfg.APS.RotateLimit,
		MaxAgeCycles:    int64(cfg.APS.MaxAgeCycles),
	})

	// sensoracq.NewSerialDriver(dev, baud, timeout) reads a real UART-attached
	// sensor board in production; SimDriver stands in for development and
	// bench testing.
	sensorDriver := sensoracq.NewSimDriver(time.Now())
	acq := sensoracq.New(s, sensorDriver, cfg.SensorPeriod(), logger)
	joy := inputacq.New(s, inputacq.SimDriver{}, cfg.JoyPeriod(), logger)

	actuators := someipclient.New("127.0.0.1:30509")
	if err := actuators.Open(); err != nil {
		logger.Printf("someipclient: actuator service unreachable at startup, actuator requests will fail as not connected: %v", err)
	}
	eg := egress.New(s, actuators, logger)

	sup := supervisor.New(s, pipeline, cfg.LogPeriod(), logger, isatty.IsTerminal(os.Stdout.Fd()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go acq.Run(ctx)
	go joy.Run(ctx)
	go runControlLoop(ctx, s, pipeline, cfg.ControlPeriod(), logger)
	go runEgressLoop(ctx, eg, cfg.CommPeriod(), logger)

	if cfg.Diag.Enabled {
		diagSrv := diagctl.New(cfg.Diag.Addr, s, eg, logger)
		go func() {
			if err := diagSrv.ListenAndServe(); err != nil {
				logger.Printf("diagctl: server stopped: %v", err)
			}
		}()
	}

	sup.Run(ctx)
	logger.Println("vcu shut down cleanly")
}

func main() {
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	cmd := strings.ToLower(args[1])
	switch cmd {
	case "help":
		help()
	case "mkconf":
		mkconf()
	case "conf":
		printconf()
	case "run":
		run()
	case "version":
		pversion()
	default:
		log.Fatal("unknown command")
	}
}
