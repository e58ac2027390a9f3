package mount

import (
	"context"
	"time"

	"github.com/looplab/fsm"
)

// Transport session states.
const (
	StateNotStarted   = "not_started"
	StateAwaitingAck  = "awaiting_ack"
	StateAcknowledged = "acknowledged"
	StateTimedOut     = "timed_out"
)

const (
	eventRequest = "request"
	eventAck     = "ack"
	eventExpire  = "expire"
)

// Session tracks one handshake. A new Session is created per forwarded
// command and dropped once the reply has been read.
type Session struct {
	machine *fsm.FSM
	started time.Time
	ackWait time.Duration
}

func newSession() *Session {
	return &Session{
		machine: fsm.NewFSM(
			StateNotStarted,
			fsm.Events{
				{Name: eventRequest, Src: []string{StateNotStarted}, Dst: StateAwaitingAck},
				{Name: eventAck, Src: []string{StateAwaitingAck}, Dst: StateAcknowledged},
				{Name: eventExpire, Src: []string{StateAwaitingAck}, Dst: StateTimedOut},
			},
			fsm.Callbacks{},
		),
	}
}

func (s *Session) request(ctx context.Context, now time.Time) {
	s.started = now
	_ = s.machine.Event(ctx, eventRequest)
}

func (s *Session) acknowledge(ctx context.Context, now time.Time) {
	s.ackWait = now.Sub(s.started)
	_ = s.machine.Event(ctx, eventAck)
}

func (s *Session) expire(ctx context.Context) {
	_ = s.machine.Event(ctx, eventExpire)
}

func (s *Session) State() string {
	return s.machine.Current()
}

// Acknowledged reports whether the controller answered the handshake.
func (s *Session) Acknowledged() bool {
	return s.machine.Is(StateAcknowledged)
}

// AckWait is the time between request and acknowledgment.
func (s *Session) AckWait() time.Duration {
	return s.ackWait
}
