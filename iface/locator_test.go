package iface_test

import (
	"net"
	"testing"

	"github.com/ndnfwd/fwd/iface"
	"github.com/stretchr/testify/require"
)

func mac(s string) net.HardwareAddr {
	m, err := net.ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return m
}

// TestClassifyZeroLocator checks that a Locator with no Local address
// classifies as invalid, matching an unset EthLocator.
func TestClassifyZeroLocator(t *testing.T) {
	c := iface.Classify(&iface.Locator{})
	require.False(t, c.Valid)
}

// TestClassifyEthernetUnicast checks that a plain Ethernet locator
// with a unicast remote address classifies as non-multicast, non-UDP.
func TestClassifyEthernetUnicast(t *testing.T) {
	loc := &iface.Locator{Local: mac("02:00:00:00:00:01"), Remote: mac("02:00:00:00:00:02")}
	c := iface.Classify(loc)
	require.True(t, c.Valid)
	require.False(t, c.Multicast)
	require.False(t, c.UDP)
}

// TestCanCoexistDifferentFamily checks that an Ethernet locator and a
// UDP locator on the same port can coexist.
func TestCanCoexistDifferentFamily(t *testing.T) {
	eth := &iface.Locator{Local: mac("02:00:00:00:00:01"), Remote: mac("02:00:00:00:00:02")}
	udp := &iface.Locator{
		Local: mac("02:00:00:00:00:01"), Remote: mac("02:00:00:00:00:02"),
		LocalIP: net.ParseIP("10.0.0.1"), RemoteIP: net.ParseIP("10.0.0.2"),
		LocalUDP: 6363, RemoteUDP: 6363,
	}
	require.True(t, iface.CanCoexist(eth, udp))
}

// TestCanCoexistSameEthernetUnicast checks that two Ethernet-unicast
// locators with identical MAC pairs and VLAN conflict.
func TestCanCoexistSameEthernetUnicast(t *testing.T) {
	a := &iface.Locator{Local: mac("02:00:00:00:00:01"), Remote: mac("02:00:00:00:00:02")}
	b := &iface.Locator{Local: mac("02:00:00:00:00:01"), Remote: mac("02:00:00:00:00:02")}
	require.False(t, iface.CanCoexist(a, b))
}

// TestCanCoexistDifferentVLAN checks that same-family locators on
// different VLANs can coexist.
func TestCanCoexistDifferentVLAN(t *testing.T) {
	a := &iface.Locator{Local: mac("02:00:00:00:00:01"), Remote: mac("02:00:00:00:00:02"), VLAN: 10}
	b := &iface.Locator{Local: mac("02:00:00:00:00:01"), Remote: mac("02:00:00:00:00:02"), VLAN: 20}
	require.True(t, iface.CanCoexist(a, b))
}

// TestCanCoexistMulticastCollision checks that two Ethernet-multicast
// locators on the same port may never coexist.
func TestCanCoexistMulticastCollision(t *testing.T) {
	a := &iface.Locator{Local: mac("02:00:00:00:00:01"), Remote: mac("01:00:5e:00:00:01")}
	b := &iface.Locator{Local: mac("02:00:00:00:00:01"), Remote: mac("01:00:5e:00:00:02")}
	require.False(t, iface.CanCoexist(a, b))
}

// TestCanCoexistUDPDifferentPort checks that two UDP-only locators
// with matching IPs but different ports can coexist.
func TestCanCoexistUDPDifferentPort(t *testing.T) {
	base := iface.Locator{
		Local: mac("02:00:00:00:00:01"), Remote: mac("02:00:00:00:00:02"),
		LocalIP: net.ParseIP("10.0.0.1"), RemoteIP: net.ParseIP("10.0.0.2"),
	}
	a, b := base, base
	a.LocalUDP, a.RemoteUDP = 6363, 6363
	b.LocalUDP, b.RemoteUDP = 6364, 6364
	require.True(t, iface.CanCoexist(&a, &b))
}
