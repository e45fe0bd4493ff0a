package iface

import "net"

// Locator identifies the two endpoints of a face's underlying
// transport. Only the fields relevant to a given transport kind are
// populated; the zero value classifies as a face with no transport.
type Locator struct {
	Local  net.HardwareAddr
	Remote net.HardwareAddr
	VLAN   uint16

	LocalIP  net.IP
	RemoteIP net.IP
	LocalUDP uint16
	RemoteUDP uint16

	VXLAN       uint32
	InnerLocal  net.HardwareAddr
	InnerRemote net.HardwareAddr
}

// LocatorClass is the coarse classification of a Locator's transport
// stack, used to pick a TX header template and to test coexistence.
type LocatorClass struct {
	Multicast bool
	UDP       bool
	V4        bool
	VXLAN     bool
	Valid     bool
}

// Classify derives the LocatorClass of loc. A Locator with no Local
// address classifies as invalid (Valid is false), matching the C
// original's "etherType == 0" sentinel for an unset locator.
func Classify(loc *Locator) LocatorClass {
	if len(loc.Local) == 0 || loc.Local.String() == (net.HardwareAddr{}).String() {
		return LocatorClass{}
	}
	c := LocatorClass{Valid: true}
	c.Multicast = len(loc.Remote) > 0 && loc.Remote[0]&0x01 != 0
	c.UDP = loc.RemoteUDP != 0
	c.V4 = loc.RemoteIP != nil && loc.RemoteIP.To4() != nil
	c.VXLAN = len(loc.InnerRemote) > 0
	return c
}

func hwEqual(a, b net.HardwareAddr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func ipEqual(a, b net.IP) bool {
	return a.Equal(b)
}

// CanCoexist reports whether locators a and b may share one physical
// port simultaneously. It returns false only for genuinely colliding
// configurations; everything else is allowed to coexist.
func CanCoexist(a, b *Locator) bool {
	ac, bc := Classify(a), Classify(b)
	if !ac.Valid || !bc.Valid {
		return false
	}
	if ac.Multicast != bc.Multicast || ac.UDP != bc.UDP || ac.V4 != bc.V4 {
		return true
	}
	if ac.Multicast {
		return false
	}
	if a.VLAN != b.VLAN {
		return true
	}
	if !ac.UDP {
		if hwEqual(a.Local, b.Local) && hwEqual(a.Remote, b.Remote) {
			return false
		}
		return true
	}
	if !ipEqual(a.LocalIP, b.LocalIP) || !ipEqual(a.RemoteIP, b.RemoteIP) {
		return true
	}
	if !ac.VXLAN && !bc.VXLAN {
		return a.LocalUDP != b.LocalUDP || a.RemoteUDP != b.RemoteUDP
	}
	if a.LocalUDP != b.LocalUDP && a.RemoteUDP != b.RemoteUDP {
		return true
	}
	if ac.VXLAN != bc.VXLAN {
		return false
	}
	return a.VXLAN != b.VXLAN || !hwEqual(a.InnerLocal, b.InnerLocal) || !hwEqual(a.InnerRemote, b.InnerRemote)
}
