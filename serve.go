package main

import (
	"fmt"
	"net/http"
	"strings"

	gobwasws "github.com/gobwas/ws"
	"github.com/gorilla/websocket"
	"github.com/vipnode/rpcstub/stub/ws"
	"github.com/vipnode/rpcstub/stub/ws/gobwas"
	"github.com/vipnode/rpcstub/stub/ws/gorilla"
	"golang.org/x/crypto/acme/autocert"
)

// checkOrigin returns an origin check for websocket handshakes. Requests
// without an Origin header, such as ones from other programs, always pass.
func checkOrigin(allow string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allow == "*" {
			return true
		}
		if allow != "" && origin == allow {
			return true
		}
		return strings.HasSuffix(origin, "://"+r.Host)
	}
}

// findUpgrader returns the websocket implementation by name.
func findUpgrader(name string, allowOrigin string) (ws.Upgrader, error) {
	switch name {
	case "gorilla":
		return &gorilla.Upgrader{
			Upgrader: websocket.Upgrader{CheckOrigin: checkOrigin(allowOrigin)},
		}, nil
	case "gobwas":
		if allowOrigin != "" {
			logger.Warningf("Ignoring --allow-origin value (%q), the gobwas upgrader accepts every origin.", allowOrigin)
		}
		return &gobwas.Upgrader{Upgrader: gobwasws.HTTPUpgrader{}}, nil
	}
	return nil, ErrExplain{
		fmt.Errorf("unknown websocket implementation: %q", name),
		"Use --websocket=gorilla or --websocket=gobwas.",
	}
}

func runServe(options Options) error {
	upgrader, err := findUpgrader(options.Serve.Websocket, options.Serve.AllowOrigin)
	if err != nil {
		return err
	}
	srv := &server{
		ws:             upgrader,
		debugLog:       len(options.Verbose) > 1,
		pendingLimit:   options.Serve.PendingLimit,
		pendingDiscard: options.Serve.PendingDiscard,
	}
	handler := newHandler(srv, options.Serve.Prefix, options.Serve.Static)

	if options.Serve.TLSHost != "" {
		if !strings.HasSuffix(options.Serve.Bind, ":443") {
			logger.Warningf("Ignoring --bind value (%q) because it's not 443 and --tlshost is set.", options.Serve.Bind)
		}
		logger.Infof("Starting rpcstub (version %s), acquiring ACME certificate and listening on: wss://%s%s", Version, options.Serve.TLSHost, options.Serve.Prefix)
		err := http.Serve(autocert.NewListener(options.Serve.TLSHost), handler)
		if strings.HasSuffix(err.Error(), "bind: permission denied") {
			err = ErrExplain{err, "Serving with autocert requires CAP_NET_BIND_SERVICE capability permission to bind on low-numbered ports. See: https://superuser.com/questions/710253/allow-non-root-process-to-bind-to-port-80-and-443/892391"}
		}
		return err
	}
	logger.Infof("Starting rpcstub (version %s), listening on: ws://%s%s", Version, options.Serve.Bind, options.Serve.Prefix)
	return http.ListenAndServe(options.Serve.Bind, handler)
}
