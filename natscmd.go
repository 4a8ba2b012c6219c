package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vipnode/rpcstub/stub"
	stubnats "github.com/vipnode/rpcstub/stub/nats"
)

// joinNats binds a stub with the demo handlers to the subject pair.
func joinNats(nc *nats.Conn, name, peer string) (*stub.Stub, *stubnats.Conn, error) {
	conn, err := stubnats.Open(nc, name, peer)
	if err != nil {
		return nil, nil, err
	}
	remote := stub.Attach(conn)
	if err := registerDemo(remote); err != nil {
		conn.Close()
		return nil, nil, err
	}
	remote.OnFunc("bar", bar)
	return remote, conn, nil
}

func runNats(options Options) error {
	timeout, err := time.ParseDuration(options.Nats.Timeout)
	if err != nil {
		return ErrExplain{err, "Invalid --timeout value, use a duration such as 10s."}
	}

	closed := make(chan struct{})
	nc, err := nats.Connect(
		options.Nats.URL,
		nats.Name("rpcstub "+options.Nats.Name),
		nats.ClosedHandler(func(*nats.Conn) { close(closed) }),
	)
	if err != nil {
		return ErrExplain{err, "Failed to connect to the NATS server. Use --url to point at a running one."}
	}
	defer nc.Close()

	remote, conn, err := joinNats(nc, options.Nats.Name, options.Nats.Peer)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer remote.Close()
	logger.Infof("Joined NATS subject %q, peer is %q", options.Nats.Name, options.Nats.Peer)

	if options.Nats.Args.Method != "" {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return callAndPrint(ctx, os.Stdout, remote, options.Nats.Args.Method, parseParams(options.Nats.Args.Params))
	}

	// Serve until interrupted or the server goes away.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	select {
	case <-ctx.Done():
		logger.Info("Shutting down...")
		return nil
	case <-closed:
		return io.EOF
	}
}
