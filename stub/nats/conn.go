// Package nats carries stub frames over a pair of NATS subjects. Each side
// subscribes to its own subject and publishes to the subject of its peer,
// which gives the point-to-point connection the stub expects.
package nats

import (
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/nats-io/nats.go"
	"github.com/vipnode/rpcstub/stub"
)

var _ stub.Socket = &Conn{}
var _ stub.Receiver = &Conn{}

// Conn is one end of a subject pair.
type Conn struct {
	nc    *nats.Conn
	sub   *nats.Subscription
	inbox string
	peer  string

	mu   sync.Mutex
	hook stub.MessageFunc

	closeOnce sync.Once
	closed    chan struct{}
}

// Open subscribes to inbox and returns a Conn that publishes to peer.
// Messages received before a hook is set are dropped.
func Open(nc *nats.Conn, inbox, peer string) (*Conn, error) {
	c := &Conn{
		nc:     nc,
		inbox:  inbox,
		peer:   peer,
		closed: make(chan struct{}),
	}
	sub, err := nc.Subscribe(inbox, c.handleMsg)
	if err != nil {
		return nil, err
	}
	c.sub = sub
	// Make sure the subscription is registered before the peer publishes.
	if err := nc.Flush(); err != nil {
		sub.Unsubscribe()
		return nil, err
	}
	return c, nil
}

// handleMsg is called by the NATS client for each message on the inbox, one
// at a time in arrival order.
func (c *Conn) handleMsg(msg *nats.Msg) {
	if hook := c.OnMessage(); hook != nil {
		hook(msg.Data)
	}
}

func (c *Conn) Send(payload []byte) error {
	return c.nc.Publish(c.peer, payload)
}

func (c *Conn) OnMessage() stub.MessageFunc {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hook
}

func (c *Conn) SetOnMessage(hook stub.MessageFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hook = hook
}

// Receive hands inbound messages to sink until the Conn is closed, then
// returns io.EOF.
func (c *Conn) Receive(sink stub.MessageFunc) error {
	c.SetOnMessage(sink)
	<-c.closed
	return io.EOF
}

// Inbox returns the subject this end listens on.
func (c *Conn) Inbox() string {
	return c.inbox
}

// Close unsubscribes from the inbox and flushes what was published so far.
// The underlying NATS connection stays open.
func (c *Conn) Close() error {
	var result error
	c.closeOnce.Do(func() {
		defer close(c.closed)
		if err := c.sub.Unsubscribe(); err != nil {
			result = multierror.Append(result, err)
		}
		if err := c.nc.Flush(); err != nil {
			result = multierror.Append(result, err)
		}
	})
	return result
}
