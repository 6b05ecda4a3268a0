/*Package someipclient implements a thin client-side stub for the SOME/IP
actuator services the specification places out of scope. It satisfies
egress.Actuators by framing each request as a small binary envelope with a
CRC32 trailer and writing it to a connection-oriented remote, retrying the
connection with a bounded backoff the way RemoteDevice does in the wider
device-control codebase this project grew out of.

The wire format is deliberately minimal: it exists to give Command Egress
something concrete to dispatch to, not to implement the SOME/IP
specification itself.
*/
package someipclient

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/snksoft/crc"

	"github.com/vcu-labs/vcu/egress"
	"github.com/vcu-labs/vcu/util"
)

// ErrNotConnected is returned by any request method when Open has not
// succeeded, or the connection has been lost.
var ErrNotConnected = errors.New("someipclient: not connected to remote")

var _ egress.Actuators = (*Client)(nil)

// service IDs, one per actuator group the specification names.
const (
	svcBuzzer byte = iota + 1
	svcLEDRear
	svcLEDFrontLow
	svcLEDFrontHigh
	svcAlert
	svcMotor
)

// Client is a connection-oriented egress.Actuators implementation.
// It is safe for concurrent use; Command Egress calls it from a single
// goroutine in practice, but the lock matches the teacher's RemoteDevice
// discipline of serializing Open/Send against a shared Conn.
type Client struct {
	sync.Mutex

	Addr    string
	Timeout time.Duration

	conn net.Conn
}

// New returns a Client for addr. It does not dial; every request method
// returns ErrNotConnected until Open succeeds.
func New(addr string) *Client {
	return &Client{Addr: addr, Timeout: 2 * time.Second}
}

// Open dials the remote, retrying with a bounded exponential backoff.
// Every dial error, a connection refusal included, is retried until
// MaxElapsedTime elapses.
func (c *Client) Open() error {
	c.Lock()
	defer c.Unlock()
	if c.conn != nil {
		return nil
	}

	var conn net.Conn
	op := func() error {
		var err error
		conn, err = net.DialTimeout("tcp", c.Addr, c.Timeout)
		return err
	}
	err := backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      2 * time.Second,
		Clock:               backoff.SystemClock,
	})
	if err != nil {
		return fmt.Errorf("someipclient: dial %s: %w", c.Addr, err)
	}
	c.conn = conn
	return nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	c.Lock()
	defer c.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// frame builds svc||payload||crc32(svc||payload), each field fixed-width.
func frame(svc byte, payload []byte) []byte {
	body := append([]byte{svc}, payload...)
	sum := crc.CalculateCRC(crc.CRC32, body)
	out := make([]byte, 0, len(body)+4)
	out = append(out, body...)
	var trailer [4]byte
	binary.BigEndian.PutUint32(trailer[:], uint32(sum))
	return append(out, trailer[:]...)
}

func (c *Client) send(svc byte, payload []byte) error {
	c.Lock()
	defer c.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.Timeout))
	_, err := c.conn.Write(frame(svc, payload))
	if err != nil {
		c.conn.Close()
		c.conn = nil
	}
	return err
}

// BuzzerControl implements egress.Actuators. The on flag is packed into
// bit 0 of the payload's leading byte, leaving the rest of the byte free
// for future flags without changing the wire layout.
func (c *Client) BuzzerControl(on bool, hz int) error {
	payload := make([]byte, 3)
	payload[0] = util.SetBit(0, 0, on)
	binary.BigEndian.PutUint16(payload[1:], uint16(hz))
	return c.send(svcBuzzer, payload)
}

// LEDControl implements egress.Actuators.
func (c *Client) LEDControl(side egress.LEDSide, on bool) error {
	svc, err := ledService(side)
	if err != nil {
		return err
	}
	return c.send(svc, []byte{util.SetBit(0, 0, on)})
}

func ledService(side egress.LEDSide) (byte, error) {
	switch side {
	case egress.LEDRear:
		return svcLEDRear, nil
	case egress.LEDFrontLow:
		return svcLEDFrontLow, nil
	case egress.LEDFrontHigh:
		return svcLEDFrontHigh, nil
	default:
		return 0, fmt.Errorf("someipclient: unknown LED side %d", side)
	}
}

// AlertControl implements egress.Actuators. intervalMs is sent as a
// signed 16-bit value so that vcu.AlertOff (-1) round-trips intact.
func (c *Client) AlertControl(intervalMs int) error {
	payload := make([]byte, 2)
	binary.BigEndian.PutUint16(payload, uint16(int16(intervalMs)))
	return c.send(svcAlert, payload)
}

// MotorControl implements egress.Actuators.
func (c *Client) MotorControl(throttle, steer int) error {
	payload := make([]byte, 2)
	payload[0] = byte(int8(throttle))
	payload[1] = byte(int8(steer))
	return c.send(svcMotor, payload)
}
