package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/pion/logging"
)

// DefaultWorkers is the default number of connections served at once.
const DefaultWorkers = 64

// TCP accepts stream connections and serves each one on a worker pool.
// When all workers are busy, accepting pauses until one frees up.
type TCP struct {
	listener net.Listener
	handler  ConnHandler
	observer ConnObserver
	pool     *ants.PoolWithFunc
	closeCh  chan struct{}
	wg       sync.WaitGroup
	log      logging.LeveledLogger

	// Connection tracking
	connsMu sync.RWMutex
	conns   map[string]net.Conn // Key: connection ID

	mu      sync.RWMutex
	started bool
	closed  bool
}

// tcpJob is one connection handed to the pool.
type tcpJob struct {
	id   string
	conn net.Conn
}

// TCPConfig configures the TCP transport.
type TCPConfig struct {
	// Listener is an optional pre-existing Listener to use.
	// If nil, a new listener will be created using ListenAddr.
	Listener net.Listener

	// ListenAddr is the address to listen on (e.g., ":5050").
	// Ignored if Listener is provided.
	ListenAddr string

	// Handler serves each accepted connection.
	// Required.
	Handler ConnHandler

	// Workers limits how many connections are served concurrently.
	// Default: DefaultWorkers.
	Workers int

	// Observer is notified about connection lifecycle. Optional.
	Observer ConnObserver

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// NewTCP creates a new TCP transport with the given configuration.
func NewTCP(config TCPConfig) (*TCP, error) {
	if config.Handler == nil {
		return nil, ErrNoHandler
	}
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}

	t := &TCP{
		listener: config.Listener,
		handler:  config.Handler,
		observer: config.Observer,
		closeCh:  make(chan struct{}),
		conns:    make(map[string]net.Conn),
	}

	if config.LoggerFactory != nil {
		t.log = config.LoggerFactory.NewLogger("transport-tcp")
	}

	pool, err := ants.NewPoolWithFunc(config.Workers, func(arg any) {
		t.serve(arg.(*tcpJob))
	}, ants.WithPanicHandler(func(p any) {
		if t.log != nil {
			t.log.Errorf("connection handler panic: %v", p)
		}
	}))
	if err != nil {
		return nil, fmt.Errorf("transport: create worker pool: %w", err)
	}
	t.pool = pool

	// Create listener if not provided
	if t.listener == nil {
		addr := config.ListenAddr
		if addr == "" {
			addr = ":0" // Use ephemeral port
		}

		listener, err := net.Listen("tcp", addr)
		if err != nil {
			pool.Release()
			return nil, err
		}
		t.listener = listener
	}

	return t, nil
}

// Start begins accepting connections.
func (t *TCP) Start() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.started {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.started = true
	t.mu.Unlock()

	if t.log != nil {
		t.log.Infof("listening on %s", t.listener.Addr())
	}

	t.wg.Add(1)
	go t.acceptLoop()

	return nil
}

// Stop closes the listener and all connections, then waits for every
// handler to return.
func (t *TCP) Stop() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	t.closed = true
	t.mu.Unlock()

	if t.log != nil {
		t.log.Info("stopping TCP transport")
	}

	close(t.closeCh)
	t.listener.Close()

	t.connsMu.Lock()
	for _, conn := range t.conns {
		conn.Close()
	}
	t.connsMu.Unlock()

	t.wg.Wait()
	t.pool.Release()
	return nil
}

// LocalAddr returns the local address the transport is listening on.
func (t *TCP) LocalAddr() net.Addr {
	return t.listener.Addr()
}

// ActiveConnections returns the number of connections being served.
func (t *TCP) ActiveConnections() int {
	t.connsMu.RLock()
	defer t.connsMu.RUnlock()
	return len(t.conns)
}

// AddConnection serves an existing connection as if it had been accepted.
// This is useful for testing with net.Pipe().
func (t *TCP) AddConnection(conn net.Conn) (string, error) {
	t.mu.RLock()
	closed, started := t.closed, t.started
	t.mu.RUnlock()
	if closed {
		return "", ErrClosed
	}
	if !started {
		return "", ErrNotStarted
	}
	return t.dispatch(conn)
}

// acceptLoop accepts incoming connections.
func (t *TCP) acceptLoop() {
	defer t.wg.Done()

	for {
		conn, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.closeCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if t.log != nil {
				t.log.Warnf("accept: %v", err)
			}
			continue
		}

		if _, err := t.dispatch(conn); err != nil && t.log != nil {
			t.log.Warnf("dropping connection from %s: %v", conn.RemoteAddr(), err)
		}
	}
}

// dispatch tracks conn and hands it to the pool. Invoke blocks while all
// workers are busy.
func (t *TCP) dispatch(conn net.Conn) (string, error) {
	id := uuid.NewString()

	t.connsMu.Lock()
	t.conns[id] = conn
	t.connsMu.Unlock()

	t.wg.Add(1)
	if err := t.pool.Invoke(&tcpJob{id: id, conn: conn}); err != nil {
		t.untrack(id)
		conn.Close()
		t.wg.Done()
		return "", err
	}
	return id, nil
}

func (t *TCP) untrack(id string) {
	t.connsMu.Lock()
	delete(t.conns, id)
	t.connsMu.Unlock()
}

// serve runs the handler for one connection on a pool worker.
func (t *TCP) serve(job *tcpJob) {
	defer t.wg.Done()

	select {
	case <-t.closeCh:
		job.conn.Close()
		t.untrack(job.id)
		return
	default:
	}

	start := time.Now()
	if t.observer != nil {
		t.observer.ConnOpened(job.id)
	}
	if t.log != nil {
		t.log.Infof("connection %s from %s", job.id, job.conn.RemoteAddr())
	}

	var err error
	defer func() {
		job.conn.Close()
		t.untrack(job.id)
		if t.observer != nil {
			t.observer.ConnClosed(job.id, err, time.Since(start))
		}
	}()

	err = t.handler(job.id, job.conn)
	if t.log != nil {
		if err != nil {
			t.log.Warnf("connection %s ended: %v", job.id, err)
		} else {
			t.log.Infof("connection %s closed", job.id)
		}
	}
}
