// Package discovery advertises and finds BSCP servers on the local network
// with DNS-SD over mDNS.
//
// Servers register an instance of the _bscp._tcp service. The TXT record
// carries the protocol version the server accepts ("ver") so a client can
// skip servers it cannot talk to without opening a connection.
package discovery

import "time"

// DNS-SD constants.
const (
	// ServiceType is the DNS-SD service type of a BSCP server.
	ServiceType = "_bscp._tcp"

	// DefaultDomain is the default mDNS domain.
	DefaultDomain = "local."

	// DefaultPort is the default BSCP server port.
	DefaultPort = 5050

	// DefaultBrowseTimeout is the default timeout for browse operations.
	DefaultBrowseTimeout = 5 * time.Second
)
