package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vipnode/rpcstub/stub"
)

// asyncDelay is how long addAsync waits before replying.
var asyncDelay = time.Second

// Arith is the synchronous part of the demo service.
type Arith struct{}

// Add returns the sum of two numbers.
func (Arith) Add(a, b float64) float64 {
	return a + b
}

// registerDemo binds the demo handlers to s.
func registerDemo(s *stub.Stub) error {
	if err := s.Register("", Arith{}); err != nil {
		return err
	}
	s.OnFunc("addAsync", addAsync)
	s.OnFunc("foo", foo)
	s.OnFunc("echo", echo)
	return nil
}

// addAsync replies with the sum of its two arguments after asyncDelay.
func addAsync(ctx context.Context, req *stub.Request) (interface{}, error) {
	var a, b float64
	if err := req.UnmarshalArgs(&a, &b); err != nil {
		return nil, err
	}
	time.AfterFunc(asyncDelay, func() {
		req.Return(a + b)
	})
	return nil, nil
}

// foo calls bar on the peer with [n, n*2] and replies with its result.
func foo(ctx context.Context, req *stub.Request) (interface{}, error) {
	var n float64
	if err := req.UnmarshalArgs(&n); err != nil {
		return nil, err
	}
	peer, err := stub.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	go func() {
		var result json.RawMessage
		if err := peer.Call(ctx, &result, "bar", n, n*2); err != nil {
			req.Fail(err)
			return
		}
		req.Return(result)
	}()
	return nil, nil
}

// echo replies with its arguments.
func echo(ctx context.Context, req *stub.Request) (interface{}, error) {
	return req.Values()
}

// bar is what the clients of this command offer back to the demo service:
// it sums its arguments.
func bar(ctx context.Context, req *stub.Request) (interface{}, error) {
	values, err := req.Values()
	if err != nil {
		return nil, err
	}
	var sum float64
	for _, v := range values {
		if n, ok := v.(float64); ok {
			sum += n
		}
	}
	return sum, nil
}
