package discovery

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/grandcat/zeroconf"
)

// Server is a discovered BSCP server.
type Server struct {
	// InstanceName is the DNS-SD instance name.
	InstanceName string

	// HostName is the target host name.
	HostName string

	// Port is the service port.
	Port int

	// IPs contains the resolved IP addresses, sorted by preference.
	IPs []net.IP

	// TXT holds the decoded BSCP attributes.
	TXT TXT

	// Text contains the raw TXT record key-value pairs.
	Text map[string]string
}

// Address returns a dialable host:port, preferring the first resolved IP
// and falling back to the host name.
func (s *Server) Address() string {
	host := s.HostName
	if len(s.IPs) > 0 {
		host = s.IPs[0].String()
	}
	return net.JoinHostPort(host, strconv.Itoa(s.Port))
}

// MDNSResolver is the interface for mDNS service resolution.
// This allows for dependency injection in tests.
//
// Browse must not block. The implementation closes entries when ctx is done.
type MDNSResolver interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// newZeroconfResolver returns the production resolver.
func newZeroconfResolver() (MDNSResolver, error) {
	return zeroconf.NewResolver()
}

// ResolverConfig holds configuration for the Resolver.
type ResolverConfig struct {
	// MDNSResolver is the underlying mDNS resolver implementation.
	// If nil, the default zeroconf resolver is used.
	MDNSResolver MDNSResolver

	// BrowseTimeout is the timeout for browse operations.
	// If zero, DefaultBrowseTimeout is used.
	BrowseTimeout time.Duration
}

// Resolver discovers BSCP servers via DNS-SD.
type Resolver struct {
	config   ResolverConfig
	resolver MDNSResolver
}

// NewResolver creates a new Resolver with the given configuration.
func NewResolver(config ResolverConfig) (*Resolver, error) {
	resolver := config.MDNSResolver
	if resolver == nil {
		zr, err := newZeroconfResolver()
		if err != nil {
			return nil, err
		}
		resolver = zr
	}
	if config.BrowseTimeout == 0 {
		config.BrowseTimeout = DefaultBrowseTimeout
	}

	return &Resolver{
		config:   config,
		resolver: resolver,
	}, nil
}

// Browse streams discovered servers until ctx is done or the browse timeout
// expires. The returned channel is closed at that point.
func (r *Resolver) Browse(ctx context.Context) (<-chan Server, error) {
	ctx, cancel := r.withTimeout(ctx)

	entries := make(chan *zeroconf.ServiceEntry)
	if err := r.resolver.Browse(ctx, ServiceType, DefaultDomain, entries); err != nil {
		cancel()
		return nil, err
	}

	results := make(chan Server)
	go func() {
		defer close(results)
		defer cancel()

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if entry == nil {
					continue
				}
				select {
				case results <- entryToServer(entry):
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return results, nil
}

// Find returns the first server that accepts version. A zero version
// matches any server.
func (r *Resolver) Find(ctx context.Context, version uint16) (*Server, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	servers, err := r.Browse(ctx)
	if err != nil {
		return nil, err
	}
	for srv := range servers {
		if version == 0 || srv.TXT.Version == version {
			cancel()
			return &srv, nil
		}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, ErrTimeout
	}
	return nil, ErrServiceNotFound
}

// withTimeout applies the browse timeout if ctx has no deadline.
func (r *Resolver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.config.BrowseTimeout)
}

// entryToServer converts a zeroconf.ServiceEntry to a Server.
func entryToServer(entry *zeroconf.ServiceEntry) Server {
	ips := make([]net.IP, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	ips = append(ips, entry.AddrIPv4...)
	ips = append(ips, entry.AddrIPv6...)

	text := ParseTXT(entry.Text)
	return Server{
		InstanceName: entry.Instance,
		HostName:     entry.HostName,
		Port:         entry.Port,
		IPs:          SortIPsByPreference(ips),
		TXT:          DecodeTXT(text),
		Text:         text,
	}
}
