// Package stream carries stub frames over any byte stream, such as a TCP
// connection or a pipe. Each frame is one line of JSON.
package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"sync"

	"github.com/vipnode/rpcstub/stub"
)

var _ stub.Receiver = &Conn{}

// Conn frames stub messages over an io.ReadWriteCloser.
type Conn struct {
	muWrite sync.Mutex
	muRead  sync.Mutex
	r       *bufio.Reader
	enc     *json.Encoder
	closer  io.Closer
}

// New returns a Conn that reads and writes frames on rwc.
func New(rwc io.ReadWriteCloser) *Conn {
	return &Conn{
		r:      bufio.NewReader(rwc),
		enc:    json.NewEncoder(rwc),
		closer: rwc,
	}
}

// Send writes payload as a single line. The payload must be one JSON value;
// it is compacted so that it holds no newline.
func (c *Conn) Send(payload []byte) error {
	c.muWrite.Lock()
	defer c.muWrite.Unlock()
	return c.enc.Encode(json.RawMessage(payload))
}

// Receive delivers each non-empty line read from the stream to sink, whether
// or not it is valid JSON. It returns io.EOF when the stream ends.
func (c *Conn) Receive(sink stub.MessageFunc) error {
	c.muRead.Lock()
	defer c.muRead.Unlock()
	for {
		line, err := c.r.ReadBytes('\n')
		if frame := bytes.TrimSpace(line); len(frame) > 0 {
			sink(frame)
		}
		if err != nil {
			return err
		}
	}
}

func (c *Conn) Close() error {
	return c.closer.Close()
}
