// Package ws holds what the websocket transports of the stub have in common.
// The implementations live in the gorilla and gobwas subpackages.
package ws

import (
	"net/http"

	"github.com/vipnode/rpcstub/stub"
)

// Conn is a websocket connection that carries stub frames, one frame per
// text message.
type Conn interface {
	stub.Receiver
	Close() error
}

// Upgrader takes an HTTP request, upgrades it to a websocket server and
// returns a Conn. This allows switching between different websocket
// implementations.
type Upgrader interface {
	Upgrade(*http.Request, http.ResponseWriter, http.Header) (Conn, error)
}
