package bridge

import (
	"sync"
	"time"

	"github.com/danmuck/lx200bridge/internal/display"
)

// ClientInfo describes the connected client.
type ClientInfo struct {
	ID          string    `json:"id"`
	Remote      string    `json:"remote"`
	ConnectedAt time.Time `json:"connected_at"`
	Commands    uint64    `json:"commands"`
}

// Status is a point-in-time view of the bridge for the admin API.
type Status struct {
	Serving        bool               `json:"serving"`
	ListenAddr     string             `json:"listen_addr"`
	Client         *ClientInfo        `json:"client,omitempty"`
	Sessions       uint64             `json:"sessions"`
	Rejected       uint64             `json:"rejected"`
	Commands       uint64             `json:"commands"`
	LastCommand    string             `json:"last_command,omitempty"`
	LastCommandAt  time.Time          `json:"last_command_at,omitempty"`
	PeerDiscovered bool               `json:"peer_discovered"`
	Addresses      *display.Addresses `json:"addresses,omitempty"`
}

type statusTracker struct {
	mu sync.RWMutex
	st Status
}

func (t *statusTracker) update(fn func(*Status)) {
	t.mu.Lock()
	fn(&t.st)
	t.mu.Unlock()
}

func (t *statusTracker) snapshot() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := t.st
	if t.st.Client != nil {
		c := *t.st.Client
		out.Client = &c
	}
	if t.st.Addresses != nil {
		a := *t.st.Addresses
		out.Addresses = &a
	}
	return out
}
