// Package display renders the four bridge addresses to the log and to an
// in-memory board read by the admin API.
package display

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Addresses are the station and access-point addresses of the bridge and
// of its peer behind the mount controller.
type Addresses struct {
	LocalStation string `json:"local_station"`
	LocalAP      string `json:"local_ap"`
	PeerStation  string `json:"peer_station"`
	PeerAP       string `json:"peer_ap"`
}

type Renderer interface {
	Render(Addresses) error
}

// LogRenderer writes the addresses as one log line.
type LogRenderer struct {
	Logger zerolog.Logger
}

func (r LogRenderer) Render(a Addresses) error {
	r.Logger.Info().
		Str("local_station", a.LocalStation).
		Str("local_ap", a.LocalAP).
		Str("peer_station", a.PeerStation).
		Str("peer_ap", a.PeerAP).
		Msg("display.render")
	return nil
}

// Board keeps the last rendered addresses.
type Board struct {
	mu       sync.RWMutex
	current  Addresses
	rendered time.Time
}

func NewBoard() *Board {
	return &Board{}
}

func (b *Board) Render(a Addresses) error {
	b.mu.Lock()
	b.current = a
	b.rendered = time.Now()
	b.mu.Unlock()
	return nil
}

// Snapshot returns the last addresses and whether anything was rendered.
func (b *Board) Snapshot() (Addresses, time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current, b.rendered, !b.rendered.IsZero()
}

// Multi renders to every renderer and joins the errors.
type Multi []Renderer

func (m Multi) Render(a Addresses) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Render(a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
