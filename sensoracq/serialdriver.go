package sensoracq

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/vcu-labs/vcu"
)

// SerialDriver reads sensor samples from a UART-attached sensor board,
// the way the teacher's comm.RemoteDevice opens and reads a serial port
// for lab instruments: one CSV line per sample,
// "ambient_lux,front_tof_mm,left_ultra_mm,right_ultra_mm,rear_ultra_mm",
// terminated by '\n'. A field value of -1 marks that channel unavailable
// this line, following the same negative-distance convention as SimDriver
// and ScriptDriver.
type SerialDriver struct {
	cfg *serial.Config

	mu     sync.Mutex
	port   *serial.Port
	reader *bufio.Reader
}

// NewSerialDriver returns a SerialDriver that will open dev at baud on
// its first Sample call. The connection is opened lazily, and reopened
// automatically if a read ever fails, mirroring RemoteDevice's
// open-on-demand behavior.
func NewSerialDriver(dev string, baud int, timeout time.Duration) *SerialDriver {
	return &SerialDriver{
		cfg: &serial.Config{Name: dev, Baud: baud, ReadTimeout: timeout},
	}
}

func (d *SerialDriver) open() error {
	if d.port != nil {
		return nil
	}
	port, err := serial.OpenPort(d.cfg)
	if err != nil {
		return fmt.Errorf("sensoracq: opening serial port %s: %w", d.cfg.Name, err)
	}
	d.port = port
	d.reader = bufio.NewReader(port)
	return nil
}

// Close releases the underlying serial port, if open.
func (d *SerialDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	d.reader = nil
	return err
}

// Sample implements Driver, reading and parsing one CSV line. A read
// failure closes the port so the next call reopens it, the same
// reconnect-on-failure discipline RemoteDevice.Open applies on a dead
// connection; a malformed line is returned as an error and leaves the
// port open.
func (d *SerialDriver) Sample(ctx context.Context) (vcu.SensorSample, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.open(); err != nil {
		return vcu.SensorSample{}, err
	}

	line, err := d.reader.ReadString('\n')
	if err != nil {
		d.port.Close()
		d.port = nil
		d.reader = nil
		return vcu.SensorSample{}, fmt.Errorf("sensoracq: reading serial sample: %w", err)
	}
	return parseSerialLine(line, time.Now())
}

// parseSerialLine parses one CSV sample line, split out of Sample so the
// wire format can be tested without a real serial port.
func parseSerialLine(line string, now time.Time) (vcu.SensorSample, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 5 {
		return vcu.SensorSample{}, fmt.Errorf("sensoracq: malformed serial sample line %q", line)
	}
	values := make([]int, 5)
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return vcu.SensorSample{}, fmt.Errorf("sensoracq: malformed serial sample field %q: %w", f, err)
		}
		values[i] = v
	}

	tsUs := now.UnixMicro()
	sample := vcu.SensorSample{
		AmbientLux:   values[0],
		FrontToFMm:   values[1],
		LeftUltraMm:  values[2],
		RightUltraMm: values[3],
		RearUltraMm:  values[4],
		TsMs:         vcu.NowMs(now),
	}
	if values[1] >= 0 {
		sample.FrontTsUs = tsUs
	}
	if values[2] >= 0 {
		sample.LeftTsUs = tsUs
	}
	if values[3] >= 0 {
		sample.RightTsUs = tsUs
	}
	if values[4] >= 0 {
		sample.RearTsUs = tsUs
	}
	return sample, nil
}
