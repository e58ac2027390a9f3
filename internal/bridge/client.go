package bridge

import (
	"bufio"
	"context"
	"errors"
	"net"
	"time"

	"github.com/danmuck/lx200bridge/internal/lx200"
	"github.com/danmuck/lx200bridge/internal/observability"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Session end reasons.
const (
	EndDisconnect  = "disconnect"
	EndIdleTimeout = "idle_timeout"
	EndShutdown    = "shutdown"
	EndWriteError  = "write_error"
)

// clientConn is the per-connection state: the socket, the framing
// accumulator and the time of the last received byte.
type clientConn struct {
	id           string
	conn         net.Conn
	reader       *bufio.Reader
	framer       lx200.Framer
	lastActivity time.Time
	commands     uint64
}

// serveClient runs the connection loop until the client disconnects, goes
// idle for IdleTimeout, or ctx ends. The idle deadline is re-armed from the
// time of each received byte and applies in any framing state.
func (s *Service) serveClient(ctx context.Context, conn net.Conn) string {
	c := &clientConn{
		id:           uuid.NewString(),
		conn:         conn,
		reader:       bufio.NewReader(conn),
		lastActivity: s.clock.Now(),
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}

	remote := conn.RemoteAddr().String()
	s.status.update(func(st *Status) {
		st.Sessions++
		st.Client = &ClientInfo{ID: c.id, Remote: remote, ConnectedAt: c.lastActivity}
	})
	defer s.status.update(func(st *Status) { st.Client = nil })
	log.Info().Str("client", c.id).Str("remote", remote).Msg("bridge.session connected")

	reason := s.clientLoop(ctx, c)
	observability.RecordSessionEnd(reason)
	log.Info().
		Str("client", c.id).
		Str("remote", remote).
		Str("reason", reason).
		Uint64("commands", c.commands).
		Bool("partial_command", c.framer.Receiving()).
		Msg("bridge.session closed")
	return reason
}

func (s *Service) clientLoop(ctx context.Context, c *clientConn) string {
	for {
		if err := c.conn.SetReadDeadline(c.lastActivity.Add(s.cfg.IdleTimeout)); err != nil {
			return s.readEndReason(ctx, err)
		}
		b, err := c.reader.ReadByte()
		if err != nil {
			return s.readEndReason(ctx, err)
		}
		c.lastActivity = s.clock.Now()

		if b == lx200.Probe {
			observability.RecordProbe()
			if err := s.reply(c, []byte{lx200.ProbeReply}); err != nil {
				return EndWriteError
			}
			log.Debug().Str("client", c.id).Msg("bridge.session probe answered")
			continue
		}

		cmd, ok := c.framer.Feed(b)
		if !ok {
			continue
		}
		c.commands++
		s.status.update(func(st *Status) {
			st.Commands++
			st.LastCommand = cmd.String()
			st.LastCommandAt = c.lastActivity
			if st.Client != nil {
				st.Client.Commands = c.commands
			}
		})

		outcome := s.dispatcher.Dispatch(ctx, cmd)
		if outcome.Kind == lx200.Suppressed || outcome.Reply == "" {
			continue
		}
		if err := s.reply(c, []byte(outcome.Reply)); err != nil {
			return EndWriteError
		}
	}
}

func (s *Service) reply(c *clientConn, b []byte) error {
	_ = c.conn.SetWriteDeadline(s.clock.Now().Add(s.cfg.IdleTimeout))
	if _, err := c.conn.Write(b); err != nil {
		log.Warn().Err(err).Str("client", c.id).Msg("bridge.session write failed")
		return err
	}
	return nil
}

func (s *Service) readEndReason(ctx context.Context, err error) string {
	if ctx.Err() != nil {
		return EndShutdown
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return EndIdleTimeout
	}
	return EndDisconnect
}
