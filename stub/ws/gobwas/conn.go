// Websocket transport using gobwas's zero-copy websocket library
package gobwas

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/hashicorp/go-multierror"
	"github.com/vipnode/rpcstub/stub"
	stubws "github.com/vipnode/rpcstub/stub/ws"
)

// Dial opens a client-side websocket connection to url.
func Dial(ctx context.Context, url string) (*Conn, error) {
	conn, br, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	return clientConn(conn, br), nil
}

func clientConn(conn net.Conn, br *bufio.Reader) *Conn {
	c := &Conn{conn: conn, state: ws.StateClientSide, r: conn}
	if br != nil {
		// The server may have sent frames along with the handshake.
		c.r = br
	}
	return c
}

func serverConn(conn net.Conn, br *bufio.Reader) *Conn {
	c := &Conn{conn: conn, state: ws.StateServerSide, r: conn}
	if br != nil {
		c.r = br
	}
	return c
}

var _ stubws.Conn = &Conn{}

// Conn is a websocket connection that sends and receives stub frames as
// text messages.
type Conn struct {
	muWrite sync.Mutex
	muRead  sync.Mutex
	conn    net.Conn
	r       io.Reader
	state   ws.State
}

func (c *Conn) Send(payload []byte) error {
	c.muWrite.Lock()
	defer c.muWrite.Unlock()
	return wsutil.WriteMessage(c.conn, c.state, ws.OpText, payload)
}

// Receive delivers every inbound data message to sink until the connection
// ends. A close frame from the peer is reported as io.EOF.
func (c *Conn) Receive(sink stub.MessageFunc) error {
	c.muRead.Lock()
	defer c.muRead.Unlock()

	// Control frames are answered on the same connection as Send.
	rw := struct {
		io.Reader
		io.Writer
	}{c.r, lockedWriter{&c.muWrite, c.conn}}

	for {
		data, _, err := wsutil.ReadData(rw, c.state)
		if _, ok := err.(wsutil.ClosedError); ok {
			return io.EOF
		} else if err != nil {
			return err
		}
		sink(data)
	}
}

// Close sends a close frame to the peer and closes the connection.
func (c *Conn) Close() error {
	var result error
	c.muWrite.Lock()
	body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
	if err := wsutil.WriteMessage(c.conn, c.state, ws.OpClose, body); err != nil {
		result = multierror.Append(result, err)
	}
	c.muWrite.Unlock()
	if err := c.conn.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}

var _ stubws.Upgrader = &Upgrader{}

// Upgrader upgrades an HTTP request to a WebSocket request and returns the
// appropriate Conn.
type Upgrader struct {
	Upgrader ws.HTTPUpgrader
}

func (u *Upgrader) Upgrade(r *http.Request, w http.ResponseWriter, h http.Header) (stubws.Conn, error) {
	conn, rw, _, err := u.Upgrader.Upgrade(r, w)
	if err != nil {
		return nil, err
	}
	var br *bufio.Reader
	if rw != nil {
		br = rw.Reader
	}
	return serverConn(conn, br), nil
}
