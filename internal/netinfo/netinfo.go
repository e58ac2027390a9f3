// Package netinfo reports the address the bridge is reachable on.
package netinfo

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

var ErrNoAddress = errors.New("netinfo: no ipv4 address assigned")

// LocalAddr returns the first IPv4 address of iface, or of the first
// non-loopback interface that is up when iface is empty.
func LocalAddr(iface string) (string, error) {
	iface = strings.TrimSpace(iface)
	if iface != "" {
		ifi, err := net.InterfaceByName(iface)
		if err != nil {
			return "", fmt.Errorf("netinfo: interface %q: %w", iface, err)
		}
		return firstIPv4(*ifi)
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("netinfo: list interfaces: %w", err)
	}
	for _, ifi := range ifaces {
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagLoopback != 0 {
			continue
		}
		if addr, err := firstIPv4(ifi); err == nil {
			return addr, nil
		}
	}
	return "", ErrNoAddress
}

func firstIPv4(ifi net.Interface) (string, error) {
	addrs, err := ifi.Addrs()
	if err != nil {
		return "", fmt.Errorf("netinfo: addrs %q: %w", ifi.Name, err)
	}
	for _, a := range addrs {
		if ip := ipv4Of(a); ip != nil {
			return ip.String(), nil
		}
	}
	return "", fmt.Errorf("%w on %q", ErrNoAddress, ifi.Name)
}

func ipv4Of(a net.Addr) net.IP {
	var ip net.IP
	switch v := a.(type) {
	case *net.IPNet:
		ip = v.IP
	case *net.IPAddr:
		ip = v.IP
	}
	return ip.To4()
}
