package transport

import (
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"
)

type recordingObserver struct {
	mu     sync.Mutex
	opened []string
	closed map[string]error
	done   chan struct{}
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{closed: make(map[string]error), done: make(chan struct{}, 16)}
}

func (o *recordingObserver) ConnOpened(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, id)
}

func (o *recordingObserver) ConnClosed(id string, err error, _ time.Duration) {
	o.mu.Lock()
	o.closed[id] = err
	o.mu.Unlock()
	o.done <- struct{}{}
}

func (o *recordingObserver) wait(t *testing.T) {
	t.Helper()
	select {
	case <-o.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for connection to close")
	}
}

func echoOnce(id string, conn net.Conn) error {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return err
	}
	_, err := conn.Write(buf)
	return err
}

func TestNewTCP(t *testing.T) {
	t.Run("with handler", func(t *testing.T) {
		tcp, err := NewTCP(TCPConfig{
			ListenAddr: "127.0.0.1:0",
			Handler:    echoOnce,
		})
		if err != nil {
			t.Fatalf("NewTCP() error = %v", err)
		}
		defer tcp.Stop()

		if tcp.listener == nil {
			t.Error("NewTCP() listener is nil")
		}
	})

	t.Run("without handler", func(t *testing.T) {
		_, err := NewTCP(TCPConfig{
			ListenAddr: "127.0.0.1:0",
		})
		if err != ErrNoHandler {
			t.Errorf("NewTCP() error = %v, want %v", err, ErrNoHandler)
		}
	})

	t.Run("with injected listener", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("Listen() error = %v", err)
		}

		tcp, err := NewTCP(TCPConfig{
			Listener: listener,
			Handler:  echoOnce,
		})
		if err != nil {
			t.Fatalf("NewTCP() error = %v", err)
		}
		defer tcp.Stop()

		if tcp.listener != listener {
			t.Error("NewTCP() did not use injected listener")
		}
	})
}

func TestTCPStartStop(t *testing.T) {
	tcp, err := NewTCP(TCPConfig{
		ListenAddr: "127.0.0.1:0",
		Handler:    echoOnce,
	})
	if err != nil {
		t.Fatalf("NewTCP() error = %v", err)
	}

	if err := tcp.Start(); err != nil {
		t.Errorf("Start() error = %v", err)
	}
	if err := tcp.Start(); err != ErrAlreadyStarted {
		t.Errorf("Start() second call error = %v, want %v", err, ErrAlreadyStarted)
	}

	if err := tcp.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := tcp.Stop(); err != ErrClosed {
		t.Errorf("Stop() second call error = %v, want %v", err, ErrClosed)
	}
	if err := tcp.Start(); err != ErrClosed {
		t.Errorf("Start() after Stop error = %v, want %v", err, ErrClosed)
	}
}

func TestTCPServesConnections(t *testing.T) {
	obs := newRecordingObserver()
	tcp, err := NewTCP(TCPConfig{
		ListenAddr: "127.0.0.1:0",
		Handler:    echoOnce,
		Observer:   obs,
		Workers:    2,
	})
	if err != nil {
		t.Fatalf("NewTCP() error = %v", err)
	}
	if err := tcp.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer tcp.Stop()

	for i := 0; i < 3; i++ {
		conn, err := net.Dial("tcp", tcp.LocalAddr().String())
		if err != nil {
			t.Fatalf("Dial() error = %v", err)
		}
		if _, err := conn.Write([]byte("ping")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		buf := make([]byte, 4)
		if _, err := io.ReadFull(conn, buf); err != nil {
			t.Fatalf("ReadFull() error = %v", err)
		}
		if string(buf) != "ping" {
			t.Errorf("echo = %q", buf)
		}
		conn.Close()
		obs.wait(t)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.opened) != 3 || len(obs.closed) != 3 {
		t.Errorf("observer saw %d opens and %d closes, want 3 and 3", len(obs.opened), len(obs.closed))
	}
	seen := make(map[string]bool)
	for _, id := range obs.opened {
		if seen[id] {
			t.Errorf("duplicate connection id %s", id)
		}
		seen[id] = true
		if err := obs.closed[id]; err != nil {
			t.Errorf("connection %s ended with %v", id, err)
		}
	}
}

func TestTCPAddConnection(t *testing.T) {
	obs := newRecordingObserver()
	tcp, err := NewTCP(TCPConfig{
		ListenAddr: "127.0.0.1:0",
		Handler:    echoOnce,
		Observer:   obs,
	})
	if err != nil {
		t.Fatalf("NewTCP() error = %v", err)
	}

	a, b := net.Pipe()
	defer a.Close()
	if _, err := tcp.AddConnection(b); err != ErrNotStarted {
		t.Errorf("AddConnection() before Start error = %v, want %v", err, ErrNotStarted)
	}

	if err := tcp.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	id, err := tcp.AddConnection(b)
	if err != nil {
		t.Fatalf("AddConnection() error = %v", err)
	}
	if id == "" {
		t.Error("AddConnection() returned empty id")
	}

	// Closing before the handler reads four bytes ends it with an error.
	a.Write([]byte{1})
	a.Close()
	obs.wait(t)

	obs.mu.Lock()
	gotErr := obs.closed[id]
	obs.mu.Unlock()
	if !errors.Is(gotErr, io.ErrUnexpectedEOF) {
		t.Errorf("handler error = %v, want io.ErrUnexpectedEOF", gotErr)
	}
	if n := tcp.ActiveConnections(); n != 0 {
		t.Errorf("ActiveConnections() = %d, want 0", n)
	}

	if err := tcp.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if _, err := tcp.AddConnection(b); err != ErrClosed {
		t.Errorf("AddConnection() after Stop error = %v, want %v", err, ErrClosed)
	}
}

func TestTCPStopClosesActiveConnections(t *testing.T) {
	started := make(chan struct{})
	tcp, err := NewTCP(TCPConfig{
		ListenAddr: "127.0.0.1:0",
		Handler: func(id string, conn net.Conn) error {
			close(started)
			_, err := conn.Read(make([]byte, 1))
			return err
		},
	})
	if err != nil {
		t.Fatalf("NewTCP() error = %v", err)
	}
	if err := tcp.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	conn, err := net.Dial("tcp", tcp.LocalAddr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	<-started

	done := make(chan struct{})
	go func() {
		tcp.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return while a handler was blocked reading")
	}
}
