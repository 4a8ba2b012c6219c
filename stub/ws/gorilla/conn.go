// Websocket transport using Gorilla's Websocket library
package gorilla

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-multierror"
	"github.com/vipnode/rpcstub/stub"
	"github.com/vipnode/rpcstub/stub/ws"
)

// Dial opens a client-side websocket connection to url.
func Dial(ctx context.Context, url string) (*Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: conn}, nil
}

var _ ws.Conn = &Conn{}
var _ stub.Socket = &Conn{}

// Conn is a websocket connection that sends and receives stub frames as
// text messages. It can be driven by a stub's Serve, or used as a Socket
// where Listen feeds the current hook.
type Conn struct {
	muWrite sync.Mutex
	muRead  sync.Mutex
	conn    *websocket.Conn

	muHook sync.Mutex
	hook   stub.MessageFunc
}

// NewConn wraps an established websocket connection.
func NewConn(conn *websocket.Conn) *Conn {
	return &Conn{conn: conn}
}

func (c *Conn) Send(payload []byte) error {
	c.muWrite.Lock()
	defer c.muWrite.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Receive delivers every inbound message to sink until the connection ends.
// A normal close from the peer is reported as io.EOF.
func (c *Conn) Receive(sink stub.MessageFunc) error {
	c.muRead.Lock()
	defer c.muRead.Unlock()
	for {
		_, data, err := c.conn.ReadMessage()
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return io.EOF
		} else if err != nil {
			return err
		}
		sink(data)
	}
}

// OnMessage returns the current hook for inbound messages.
func (c *Conn) OnMessage() stub.MessageFunc {
	c.muHook.Lock()
	defer c.muHook.Unlock()
	return c.hook
}

// SetOnMessage replaces the hook for inbound messages.
func (c *Conn) SetOnMessage(hook stub.MessageFunc) {
	c.muHook.Lock()
	defer c.muHook.Unlock()
	c.hook = hook
}

// Listen reads messages and hands them to the current hook until the
// connection ends. Messages that arrive while no hook is set are dropped.
func (c *Conn) Listen() error {
	return c.Receive(func(data []byte) {
		if hook := c.OnMessage(); hook != nil {
			hook(data)
		}
	})
}

// Close sends a close message to the peer and closes the connection.
func (c *Conn) Close() error {
	var result error
	c.muWrite.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil && err != websocket.ErrCloseSent {
		result = multierror.Append(result, err)
	}
	c.muWrite.Unlock()
	if err := c.conn.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

// RemoteAddr returns the address of the peer.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

var _ ws.Upgrader = &Upgrader{}

// Upgrader upgrades an HTTP request to a WebSocket request and returns the
// appropriate Conn.
type Upgrader struct {
	Upgrader websocket.Upgrader
}

func (u *Upgrader) Upgrade(r *http.Request, w http.ResponseWriter, h http.Header) (ws.Conn, error) {
	conn, err := u.Upgrader.Upgrade(w, r, h)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: conn}, nil
}
