package discovery

import (
	"context"
	"net"
	"strconv"
	"sync"

	"github.com/grandcat/zeroconf"
)

// MockMDNSResolver provides a mock mDNS resolver for testing without real network I/O.
// Like zeroconf, Browse returns at once and closes entries when ctx is done.
type MockMDNSResolver struct {
	mu       sync.RWMutex
	services map[string][]*zeroconf.ServiceEntry
}

// NewMockMDNSResolver creates a new mock resolver.
func NewMockMDNSResolver() *MockMDNSResolver {
	return &MockMDNSResolver{
		services: make(map[string][]*zeroconf.ServiceEntry),
	}
}

// RegisterService registers a service that will be returned by Browse.
func (m *MockMDNSResolver) RegisterService(service string, entry *zeroconf.ServiceEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[service] = append(m.services[service], entry)
}

// Browse implements MDNSResolver.
func (m *MockMDNSResolver) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	m.mu.RLock()
	svcEntries := make([]*zeroconf.ServiceEntry, len(m.services[service]))
	copy(svcEntries, m.services[service])
	m.mu.RUnlock()

	go func() {
		defer close(entries)
		for _, entry := range svcEntries {
			select {
			case entries <- entry:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return nil
}

// MockServerFactory records registrations instead of touching the network.
type MockServerFactory struct {
	mu            sync.Mutex
	Registrations []MockRegistration
}

// MockRegistration is one recorded Register call.
type MockRegistration struct {
	Instance string
	Service  string
	Domain   string
	Port     int
	TXT      []string
	server   *mockServer
}

// ShutDown reports whether the registration has been shut down.
func (r MockRegistration) ShutDown() bool {
	return r.server.isShutdown()
}

type mockServer struct {
	mu       sync.Mutex
	shutdown bool
}

func (s *mockServer) Shutdown() {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
}

func (s *mockServer) isShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

// Register implements MDNSServerFactory.
func (f *MockServerFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	srv := &mockServer{}
	f.Registrations = append(f.Registrations, MockRegistration{
		Instance: instance,
		Service:  service,
		Domain:   domain,
		Port:     port,
		TXT:      txt,
		server:   srv,
	})
	return srv, nil
}

// MockService creates a mock BSCP service entry for testing.
func MockService(instance string, port int, ip net.IP, version uint16) *zeroconf.ServiceEntry {
	return &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{
			Instance: instance,
			Service:  ServiceType,
			Domain:   DefaultDomain,
		},
		HostName: instance + ".local.",
		Port:     port,
		AddrIPv4: []net.IP{ip},
		Text:     []string{TXTKeyVersion + "=" + strconv.Itoa(int(version))},
	}
}
