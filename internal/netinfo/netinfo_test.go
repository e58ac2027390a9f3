package netinfo

import (
	"errors"
	"net"
	"strings"
	"testing"
)

func TestIPv4Of(t *testing.T) {
	_, v4, _ := net.ParseCIDR("192.168.4.1/24")
	_, v6, _ := net.ParseCIDR("fe80::1/64")
	if ip := ipv4Of(&net.IPNet{IP: net.ParseIP("192.168.4.1"), Mask: v4.Mask}); ip == nil || ip.String() != "192.168.4.1" {
		t.Fatalf("unexpected v4: %v", ip)
	}
	if ip := ipv4Of(&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: v6.Mask}); ip != nil {
		t.Fatalf("ipv6 must be skipped, got %v", ip)
	}
}

func TestLocalAddrUnknownInterface(t *testing.T) {
	if _, err := LocalAddr("lx200-missing0"); err == nil {
		t.Fatalf("expected error for unknown interface")
	}
}

func TestLocalAddrLoopbackByName(t *testing.T) {
	ifaces, err := net.Interfaces()
	if err != nil {
		t.Skipf("interfaces unavailable: %v", err)
	}
	for _, ifi := range ifaces {
		if ifi.Flags&net.FlagLoopback == 0 {
			continue
		}
		addr, err := LocalAddr(ifi.Name)
		if errors.Is(err, ErrNoAddress) {
			t.Skipf("loopback %q has no ipv4", ifi.Name)
		}
		if err != nil {
			t.Fatalf("local addr: %v", err)
		}
		if !strings.HasPrefix(addr, "127.") {
			t.Fatalf("unexpected loopback addr: %q", addr)
		}
		return
	}
	t.Skip("no loopback interface")
}
