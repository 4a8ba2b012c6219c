package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vipnode/rpcstub/stub"
	"github.com/vipnode/rpcstub/stub/ws/gorilla"
	"golang.org/x/sync/errgroup"
)

// parseParams decodes each command line argument as JSON, falling back to
// the raw string.
func parseParams(args []string) []interface{} {
	params := make([]interface{}, 0, len(args))
	for _, arg := range args {
		var v interface{}
		if err := json.Unmarshal([]byte(arg), &v); err != nil {
			v = arg
		}
		params = append(params, v)
	}
	return params
}

// callAndPrint issues one call through s and writes the JSON reply to w.
func callAndPrint(ctx context.Context, w io.Writer, s *stub.Stub, method string, params []interface{}) error {
	var result json.RawMessage
	if err := s.Call(ctx, &result, method, params...); err != nil {
		return err
	}
	if result == nil {
		result = json.RawMessage("null")
	}
	_, err := fmt.Fprintf(w, "%s\n", result)
	return err
}

func runCall(options Options) error {
	timeout, err := time.ParseDuration(options.Call.Timeout)
	if err != nil {
		return ErrExplain{err, "Invalid --timeout value, use a duration such as 10s."}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := gorilla.Dial(ctx, options.Call.Args.URL)
	if err != nil {
		return ErrExplain{err, "Failed to connect to the websocket peer."}
	}
	logger.Infof("Connected to: %s", options.Call.Args.URL)

	var rx stub.Receiver = conn
	if len(options.Verbose) > 1 {
		rx = stub.DebugReceiver(conn.RemoteAddr(), conn)
	}
	remote := stub.New(rx)
	remote.OnFunc("bar", bar)

	g, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		err := remote.Serve(rx)
		select {
		case <-done:
			// We hung up.
			return nil
		default:
		}
		if err == nil {
			err = io.EOF
		}
		return err
	})
	g.Go(func() error {
		defer conn.Close()
		defer close(done)
		return callAndPrint(ctx, os.Stdout, remote, options.Call.Args.Method, parseParams(options.Call.Args.Params))
	})
	return g.Wait()
}
