// Package fakeport is an in-memory serial.Port driven by a clock.Clock.
package fakeport

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/danmuck/lx200bridge/internal/clock"
	"github.com/danmuck/lx200bridge/internal/serial"
)

// Responder reacts to bytes written by the code under test.
type Responder func(p *Port, written []byte)

type chunk struct {
	at   time.Time
	data []byte
}

// Port delivers injected bytes once the clock reaches their arrival time.
// An empty Read sleeps one poll interval on the clock.
type Port struct {
	mu        sync.Mutex
	clock     clock.Clock
	poll      time.Duration
	inbound   []chunk
	writes    [][]byte
	responder Responder
	lines     map[serial.ModemLine]bool
	resets    int
	flushes   int
	closed    bool
}

var (
	_ serial.Port       = (*Port)(nil)
	_ serial.ModemLines = (*Port)(nil)
)

func New(clk clock.Clock, poll time.Duration) *Port {
	if poll <= 0 {
		poll = time.Millisecond
	}
	return &Port{
		clock: clk,
		poll:  poll,
		lines: make(map[serial.ModemLine]bool),
	}
}

func (p *Port) SetResponder(r Responder) {
	p.mu.Lock()
	p.responder = r
	p.mu.Unlock()
}

// Inject schedules data to arrive after delay.
func (p *Port) Inject(delay time.Duration, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	p.mu.Lock()
	defer p.mu.Unlock()
	c := chunk{at: p.clock.Now().Add(delay), data: cp}
	i := len(p.inbound)
	for i > 0 && p.inbound[i-1].at.After(c.at) {
		i--
	}
	p.inbound = append(p.inbound, chunk{})
	copy(p.inbound[i+1:], p.inbound[i:])
	p.inbound[i] = c
}

func (p *Port) Read(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	now := p.clock.Now()
	n := 0
	for len(p.inbound) > 0 && n < len(b) && !p.inbound[0].at.After(now) {
		c := &p.inbound[0]
		k := copy(b[n:], c.data)
		n += k
		c.data = c.data[k:]
		if len(c.data) == 0 {
			p.inbound = p.inbound[1:]
		}
	}
	p.mu.Unlock()
	if n == 0 {
		p.clock.Sleep(p.poll)
	}
	return n, nil
}

func (p *Port) Write(b []byte) (int, error) {
	cp := make([]byte, len(b))
	copy(cp, b)
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	p.writes = append(p.writes, cp)
	r := p.responder
	p.mu.Unlock()
	if r != nil {
		r(p, cp)
	}
	return len(b), nil
}

func (p *Port) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *Port) Flush() error {
	p.mu.Lock()
	p.flushes++
	p.mu.Unlock()
	return nil
}

// ResetInput drops bytes that have already arrived.
func (p *Port) ResetInput() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.clock.Now()
	kept := p.inbound[:0]
	for _, c := range p.inbound {
		if c.at.After(now) {
			kept = append(kept, c)
		}
	}
	p.inbound = kept
	p.resets++
	return nil
}

func (p *Port) ModemLine(line serial.ModemLine) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lines[line], nil
}

func (p *Port) SetLine(line serial.ModemLine, asserted bool) {
	p.mu.Lock()
	p.lines[line] = asserted
	p.mu.Unlock()
}

// Writes returns every Write call in order.
func (p *Port) Writes() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.writes))
	for i, w := range p.writes {
		out[i] = append([]byte(nil), w...)
	}
	return out
}

// Written returns all written bytes concatenated.
func (p *Port) Written() []byte {
	return bytes.Join(p.Writes(), nil)
}

func (p *Port) Flushes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushes
}

// Controller returns a Responder that acks every handshake byte with ack
// after ackDelay and answers each other write using replies.
func Controller(request, ack byte, ackDelay time.Duration, replies func(cmd string) (string, time.Duration, bool)) Responder {
	return func(p *Port, written []byte) {
		if len(written) == 1 && written[0] == request {
			if ackDelay >= 0 {
				p.Inject(ackDelay, []byte{ack})
			}
			return
		}
		if replies == nil {
			return
		}
		if reply, delay, ok := replies(string(written)); ok {
			p.Inject(delay, []byte(reply))
		}
	}
}
