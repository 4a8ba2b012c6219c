package gobwas

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/vipnode/rpcstub/stub"
	"golang.org/x/sync/errgroup"
)

func TestConnFrames(t *testing.T) {
	c1, c2 := net.Pipe()

	client := clientConn(c1, nil)
	server := serverConn(c2, nil)

	go client.Send([]byte(`{"rpcId":0,"direction":"request","eventName":"foo","args":[]}`))
	got := make(chan []byte, 1)
	go server.Receive(func(data []byte) { got <- data })
	if msg := <-got; string(msg) != `{"rpcId":0,"direction":"request","eventName":"foo","args":[]}` {
		t.Errorf("wrong message: %s", msg)
	}

	go server.Send([]byte(`{"rpcId":0,"direction":"reply","value":"bar"}`))
	go client.Receive(func(data []byte) { got <- data })
	if msg := <-got; string(msg) != `{"rpcId":0,"direction":"reply","value":"bar"}` {
		t.Errorf("wrong message: %s", msg)
	}
}

func TestConnStubs(t *testing.T) {
	c1, c2 := net.Pipe()
	client, server := clientConn(c1, nil), serverConn(c2, nil)

	a, b := stub.New(client), stub.New(server)
	b.OnFunc("greet", func(ctx context.Context, req *stub.Request) (interface{}, error) {
		var name string
		if err := req.UnmarshalArgs(&name); err != nil {
			return nil, err
		}
		return "hello, " + name, nil
	})

	var serverErr error
	served := make(chan struct{})
	go func() {
		serverErr = b.Serve(server)
		close(served)
	}()

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		a.Serve(client)
		return nil
	})
	g.Go(func() error {
		var got string
		if err := a.Call(ctx, &got, "greet", "gopher"); err != nil {
			return err
		}
		if got != "hello, gopher" {
			t.Errorf("got: %q", got)
		}
		return client.Close()
	})
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	<-served
	// The close reply may race with the client hanging up.
	if serverErr != io.EOF && serverErr != io.ErrClosedPipe {
		t.Errorf("server ended with: %v; want io.EOF", serverErr)
	}
}
