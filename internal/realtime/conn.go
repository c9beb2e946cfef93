package realtime

import (
	"crypto/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
)

// State is the lifecycle position of a connection.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Labels are the sender / receiver identifiers a client claimed when connecting.
// They are not verified.
type Labels struct {
	Sender   string
	Receiver string
}

// Conn is one realtime client. Only the write pump writes to the socket;
// everyone else hands frames over through Enqueue.
type Conn struct {
	ID     string
	Labels Labels

	ws    *websocket.Conn
	send  chan []byte
	state atomic.Int32

	done      chan struct{}
	closeOnce sync.Once

	writeTimeout time.Duration
	pingPeriod   time.Duration
}

func newConn(ws *websocket.Conn, labels Labels, queue int, writeTimeout, pongWait time.Duration) *Conn {
	if queue <= 0 {
		queue = 1
	}
	if pongWait <= 0 {
		pongWait = defaultPongWait
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	c := &Conn{
		ID:           ulid.MustNew(ulid.Now(), rand.Reader).String(),
		Labels:       labels,
		ws:           ws,
		send:         make(chan []byte, queue),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		pingPeriod:   pongWait * 9 / 10,
	}
	c.state.Store(int32(StateConnecting))
	return c
}

// State reports the current lifecycle state.
func (c *Conn) State() State { return State(c.state.Load()) }

// Done is closed once the connection reaches StateClosed.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) open() bool {
	return c.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen))
}

// Enqueue hands payload to the write pump without blocking. It returns false
// when the queue is full or the connection is closed.
func (c *Conn) Enqueue(payload []byte) bool {
	if c.State() != StateOpen {
		return false
	}
	select {
	case <-c.done:
		return false
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close moves the connection to StateClosed and closes the socket. Safe to call repeatedly.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		close(c.done)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

// closeWith sends a close control frame before closing. WriteControl may run
// alongside the write pump.
func (c *Conn) closeWith(code int, reason string) {
	if c.ws != nil && c.State() == StateOpen {
		deadline := time.Now().Add(c.writeTimeout)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	}
	c.Close()
}

// writePump drains the send queue and keeps the peer alive with pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
