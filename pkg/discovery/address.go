package discovery

import (
	"net"
	"sort"
)

// SortIPsByPreference returns a copy of ips ordered for connecting from the
// local network: IPv4 first, then global IPv6, ULA and link-local.
func SortIPsByPreference(ips []net.IP) []net.IP {
	sorted := make([]net.IP, len(ips))
	copy(sorted, ips)

	sort.SliceStable(sorted, func(i, j int) bool {
		return ipPriority(sorted[i]) < ipPriority(sorted[j])
	})
	return sorted
}

// ipPriority returns the priority of an IP address (lower is better).
func ipPriority(ip net.IP) int {
	if ip.To16() == nil {
		return 99
	}
	switch {
	case ip.To4() != nil:
		return 10
	case ip.IsGlobalUnicast() && !ip.IsPrivate():
		return 20
	case ip.IsPrivate():
		return 30
	case ip.IsLinkLocalUnicast():
		return 40
	default:
		return 50
	}
}
