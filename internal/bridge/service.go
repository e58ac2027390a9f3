package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/danmuck/lx200bridge/internal/clock"
	"github.com/danmuck/lx200bridge/internal/display"
	"github.com/danmuck/lx200bridge/internal/lx200"
	"github.com/danmuck/lx200bridge/internal/netinfo"
	"github.com/danmuck/lx200bridge/internal/observability"
	"github.com/danmuck/lx200bridge/internal/reset"
	"github.com/rs/zerolog/log"
)

var (
	ErrResetRequested = errors.New("bridge: reset requested by mount controller")
	ErrNilLink        = errors.New("bridge: mount link required")
)

// Deps are the collaborators of a Service. Only Link is required.
type Deps struct {
	Link      Forwarder
	Clock     clock.Clock
	Display   display.Renderer
	Reset     reset.Line
	LocalAddr func(iface string) (string, error)
}

// Service accepts planetarium clients and bridges them to the mount
// controller.
//
// One goroutine (the serve loop) owns the mount link and runs every client
// session, peer discovery and reset polling in program order, so at most
// one command is ever in flight on the link. A second goroutine only
// accepts connections: while a session is active, new clients are
// refused by closing them immediately.
type Service struct {
	cfg        ServiceConfig
	clock      clock.Clock
	link       Forwarder
	dispatcher *Dispatcher
	display    display.Renderer
	reset      reset.Line
	localAddr  func(string) (string, error)

	status statusTracker
	busy   atomic.Bool
	conns  chan net.Conn
}

func NewService(cfg ServiceConfig, deps Deps) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Link == nil {
		return nil, ErrNilLink
	}
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	if deps.Reset == nil {
		deps.Reset = reset.Never{}
	}
	if deps.LocalAddr == nil {
		deps.LocalAddr = netinfo.LocalAddr
	}
	return &Service{
		cfg:        cfg,
		clock:      deps.Clock,
		link:       deps.Link,
		dispatcher: NewDispatcher(lx200.NewRules(cfg.Identity), deps.Link),
		display:    deps.Display,
		reset:      deps.Reset,
		localAddr:  deps.LocalAddr,
		conns:      make(chan net.Conn),
	}, nil
}

// Status returns a snapshot for the admin API.
func (s *Service) Status() Status {
	return s.status.snapshot()
}

// Run listens on ListenAddr and serves until ctx ends or a reset is requested.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("bridge: listen %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the bridge on an existing listener.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	acceptErr := make(chan error, 1)
	go func() {
		acceptErr <- s.acceptLoop(ctx, ln)
	}()

	addr := ln.Addr().String()
	s.status.update(func(st *Status) {
		st.Serving = true
		st.ListenAddr = addr
	})
	defer s.status.update(func(st *Status) { st.Serving = false })
	log.Info().Str("addr", addr).Msg("bridge.Service.Serve listening")

	return s.serveLoop(ctx, acceptErr)
}

func (s *Service) serveLoop(ctx context.Context, acceptErr <-chan error) error {
	var discoverC, resetC <-chan time.Time
	if s.cfg.Display.Enabled {
		t := time.NewTicker(s.cfg.Display.PollInterval)
		defer t.Stop()
		discoverC = t.C
	}
	if s.cfg.Reset.Enabled {
		t := time.NewTicker(s.cfg.Reset.PollInterval)
		defer t.Stop()
		resetC = t.C
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("bridge.Service.Serve shutdown")
			return nil
		case err := <-acceptErr:
			return err
		case conn := <-s.conns:
			s.serveClient(ctx, conn)
			s.busy.Store(false)
		case <-discoverC:
			if s.discoverPeer(ctx) {
				discoverC = nil
			}
		case <-resetC:
			asserted, err := s.reset.Asserted()
			if err != nil {
				log.Warn().Err(err).Msg("bridge.Service reset line read failed")
				continue
			}
			if asserted {
				log.Warn().Msg("bridge.Service reset requested by mount controller")
				return ErrResetRequested
			}
		}
	}
}

func (s *Service) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("bridge: accept: %w", err)
		}
		if !s.busy.CompareAndSwap(false, true) {
			s.refuse(conn)
			continue
		}
		observability.RecordClientSession("accepted")
		select {
		case s.conns <- conn:
		case <-ctx.Done():
			_ = conn.Close()
			return nil
		}
	}
}

func (s *Service) refuse(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	_ = conn.Close()
	observability.RecordClientSession("rejected")
	s.status.update(func(st *Status) { st.Rejected++ })
	log.Warn().Str("remote", remote).Msg("bridge.Service refused client, session already active")
}
