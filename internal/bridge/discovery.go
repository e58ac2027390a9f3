package bridge

import (
	"context"
	"strings"

	"github.com/danmuck/lx200bridge/internal/display"
	"github.com/danmuck/lx200bridge/internal/lx200"
	"github.com/rs/zerolog/log"
)

// peerAddressQuery asks the mount controller for the station address of
// the device on its other side.
const peerAddressQuery = ":GI#"

// discoverPeer polls the peer address once and renders the display when a
// usable reply arrives. It reports whether discovery is complete.
func (s *Service) discoverPeer(ctx context.Context) bool {
	reply, err := s.link.Forward(ctx, lx200.Command(peerAddressQuery), true)
	if err != nil {
		log.Warn().Err(err).Msg("bridge.discoverPeer forward failed")
		return false
	}
	peer, ok := parsePeerAddress(reply)
	if !ok {
		log.Debug().Str("reply", lx200.PrintableString(reply)).Msg("bridge.discoverPeer no address yet")
		return false
	}

	local, err := s.localAddr(s.cfg.Display.Interface)
	if err != nil {
		log.Warn().Err(err).Msg("bridge.discoverPeer local address unavailable")
	}
	addrs := display.Addresses{
		LocalStation: local,
		LocalAP:      s.cfg.Display.APAddr,
		PeerStation:  peer,
		PeerAP:       s.cfg.Display.PeerAPAddr,
	}
	if s.display != nil {
		if err := s.display.Render(addrs); err != nil {
			log.Warn().Err(err).Msg("bridge.discoverPeer render failed")
		}
	}
	s.status.update(func(st *Status) {
		st.PeerDiscovered = true
		st.Addresses = &addrs
	})
	log.Info().Str("peer", peer).Str("local", local).Msg("bridge.discoverPeer peer address received")
	return true
}

// parsePeerAddress accepts replies longer than four bytes that end with
// the terminator.
func parsePeerAddress(reply string) (string, bool) {
	if len(reply) <= 4 || !strings.HasSuffix(reply, string(lx200.EndMarker)) {
		return "", false
	}
	addr := strings.TrimSpace(strings.TrimSuffix(reply, string(lx200.EndMarker)))
	if addr == "" {
		return "", false
	}
	return addr, true
}
