// Package mount talks to the downstream mount controller over the serial
// link: a one-byte handshake before every forwarded command, then a reply
// read with separate first-byte and terminator deadlines.
//
// Every wait is a bounded poll loop: one short port read per iteration,
// then a deadline check against the Clock. The Controller is not safe for
// concurrent use; exactly one command may be in flight on the link.
package mount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/lx200bridge/internal/clock"
	"github.com/danmuck/lx200bridge/internal/lx200"
	"github.com/danmuck/lx200bridge/internal/observability"
	"github.com/danmuck/lx200bridge/internal/serial"
	"github.com/rs/zerolog/log"
)

const (
	// RequestByte asks the controller to get ready; AckByte is its answer.
	RequestByte byte = 'L'
	AckByte     byte = 'K'
)

var ErrNilPort = errors.New("mount: nil serial port")

// Timing bounds every wait on the link.
type Timing struct {
	AckTimeout        time.Duration
	SettleDelay       time.Duration
	FirstByteTimeout  time.Duration
	TerminatorTimeout time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		AckTimeout:        500 * time.Millisecond,
		SettleDelay:       3 * time.Millisecond,
		FirstByteTimeout:  2300 * time.Millisecond,
		TerminatorTimeout: 350 * time.Millisecond,
	}
}

// WithDefaults replaces unset fields with DefaultTiming values.
func (t Timing) WithDefaults() Timing {
	d := DefaultTiming()
	if t.AckTimeout <= 0 {
		t.AckTimeout = d.AckTimeout
	}
	if t.SettleDelay < 0 {
		t.SettleDelay = d.SettleDelay
	}
	if t.FirstByteTimeout <= 0 {
		t.FirstByteTimeout = d.FirstByteTimeout
	}
	if t.TerminatorTimeout <= 0 {
		t.TerminatorTimeout = d.TerminatorTimeout
	}
	return t
}

type Controller struct {
	port    serial.Port
	clock   clock.Clock
	timing  Timing
	pending []byte
	buf     [64]byte

	// owedUntil is set after a no-reply forward: a late answer to that
	// command may still arrive until then.
	owedUntil time.Time
}

func NewController(port serial.Port, clk clock.Clock, timing Timing) (*Controller, error) {
	if port == nil {
		return nil, ErrNilPort
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Controller{
		port:   port,
		clock:  clk,
		timing: timing.WithDefaults(),
	}, nil
}

func (c *Controller) Timing() Timing {
	return c.timing
}

// poll performs one bounded port read and appends the bytes to pending.
func (c *Controller) poll() error {
	n, err := c.port.Read(c.buf[:])
	if n > 0 {
		c.pending = append(c.pending, c.buf[:n]...)
	}
	if err != nil {
		return fmt.Errorf("mount: read: %w", err)
	}
	return nil
}

func (c *Controller) write(b []byte) error {
	if _, err := c.port.Write(b); err != nil {
		return fmt.Errorf("mount: write: %w", err)
	}
	if err := c.port.Flush(); err != nil {
		return fmt.Errorf("mount: flush: %w", err)
	}
	return nil
}

// Handshake sends RequestByte and waits up to AckTimeout for AckByte.
// Bytes before the ack are dropped; after it the link is drained for
// SettleDelay. A timed-out session is not an error: callers write the
// command regardless.
func (c *Controller) Handshake(ctx context.Context) (*Session, error) {
	sess := newSession()
	if err := c.discardOwed(); err != nil {
		return sess, err
	}
	if err := c.write([]byte{RequestByte}); err != nil {
		return sess, err
	}
	start := c.clock.Now()
	sess.request(ctx, start)
	deadline := start.Add(c.timing.AckTimeout)

	for {
		for i, b := range c.pending {
			if b != AckByte {
				continue
			}
			sess.acknowledge(ctx, c.clock.Now())
			c.pending = c.pending[i+1:]
			return sess, c.settle()
		}
		c.pending = c.pending[:0]

		if !c.clock.Now().Before(deadline) {
			sess.expire(ctx)
			observability.RecordTransportTimeout(observability.PhaseHandshake)
			log.Warn().
				Dur("timeout", c.timing.AckTimeout).
				Msg("mount.Handshake no ack, writing command anyway")
			return sess, nil
		}
		if err := c.poll(); err != nil {
			return sess, err
		}
	}
}

// discardOwed drops the reply still owed by the last no-reply command.
// Input is read until a terminator arrives or the owed deadline passes, so
// that reply can never be taken for the answer to the next command.
func (c *Controller) discardOwed() error {
	if c.owedUntil.IsZero() {
		return nil
	}
	deadline := c.owedUntil
	c.owedUntil = time.Time{}
	for {
		for i, b := range c.pending {
			if b != lx200.EndMarker {
				continue
			}
			log.Debug().
				Str("discarded", lx200.PrintableString(string(c.pending[:i+1]))).
				Msg("mount.Handshake dropped owed reply")
			c.pending = c.pending[i+1:]
			return nil
		}
		if !c.clock.Now().Before(deadline) {
			c.pending = c.pending[:0]
			return nil
		}
		if err := c.poll(); err != nil {
			return err
		}
	}
}

// settle discards whatever arrives during SettleDelay.
func (c *Controller) settle() error {
	end := c.clock.Now().Add(c.timing.SettleDelay)
	c.pending = c.pending[:0]
	for c.clock.Now().Before(end) {
		if err := c.poll(); err != nil {
			return err
		}
		c.pending = c.pending[:0]
	}
	return nil
}

// ReadResponse reads one reply. It returns "" when nothing arrives within
// FirstByteTimeout, the text through '#' when the terminator arrives within
// TerminatorTimeout, and whatever was accumulated otherwise. AckByte, '\r'
// and '\n' are dropped as noise.
func (c *Controller) ReadResponse() (string, error) {
	deadline := c.clock.Now().Add(c.timing.FirstByteTimeout)
	for len(c.pending) == 0 {
		if !c.clock.Now().Before(deadline) {
			observability.RecordTransportTimeout(observability.PhaseFirstByte)
			log.Warn().
				Dur("timeout", c.timing.FirstByteTimeout).
				Msg("mount.ReadResponse timeout waiting for first byte")
			return "", nil
		}
		if err := c.poll(); err != nil {
			return "", err
		}
	}

	var reply []byte
	deadline = c.clock.Now().Add(c.timing.TerminatorTimeout)
	for {
		for i, b := range c.pending {
			if b == AckByte || b == '\r' || b == '\n' {
				continue
			}
			reply = append(reply, b)
			if b == lx200.EndMarker {
				c.pending = c.pending[i+1:]
				return string(reply), nil
			}
		}
		c.pending = c.pending[:0]

		if !c.clock.Now().Before(deadline) {
			observability.RecordTransportTimeout(observability.PhaseTerminator)
			log.Warn().
				Dur("timeout", c.timing.TerminatorTimeout).
				Str("partial", lx200.PrintableString(string(reply))).
				Msg("mount.ReadResponse timeout waiting for terminator")
			return string(reply), nil
		}
		if err := c.poll(); err != nil {
			return string(reply), err
		}
	}
}

// Forward handshakes, writes cmd, and reads the reply when expectReply is set.
// Without expectReply it returns right after the write; the next Handshake
// absorbs any answer the controller still sends.
func (c *Controller) Forward(ctx context.Context, cmd lx200.Command, expectReply bool) (string, error) {
	start := c.clock.Now()
	sess, err := c.Handshake(ctx)
	if err != nil {
		return "", err
	}
	if err := c.write(cmd); err != nil {
		return "", err
	}
	outcome := "no_reply"
	reply := ""
	if expectReply {
		reply, err = c.ReadResponse()
		if err != nil {
			return reply, err
		}
		outcome = "reply"
		if reply == "" {
			outcome = "empty"
		}
	} else {
		c.owedUntil = c.clock.Now().Add(c.timing.FirstByteTimeout + c.timing.TerminatorTimeout)
	}
	elapsed := c.clock.Now().Sub(start)
	observability.RecordForward(outcome, elapsed)
	log.Debug().
		Str("cmd", cmd.String()).
		Str("handshake", sess.State()).
		Dur("ack_wait", sess.AckWait()).
		Str("reply", lx200.PrintableString(reply)).
		Dur("elapsed", elapsed).
		Msg("mount.Forward")
	return reply, nil
}
