package transport

import (
	"net"
	"time"
)

// ConnHandler serves one connection until the session ends. id uniquely
// names the connection. The transport closes conn after the handler returns.
type ConnHandler func(id string, conn net.Conn) error

// ConnObserver is notified when connections open and close.
type ConnObserver interface {
	ConnOpened(id string)
	ConnClosed(id string, err error, elapsed time.Duration)
}
