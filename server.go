package main

import (
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-uuid"
	"github.com/vipnode/rpcstub/internal/pretty"
	"github.com/vipnode/rpcstub/stub"
	"github.com/vipnode/rpcstub/stub/ws"
)

// server upgrades websocket requests and binds a stub with the demo handlers
// to each connection.
type server struct {
	ws       ws.Upgrader
	debugLog bool

	pendingLimit   int
	pendingDiscard int
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "unsupported method", http.StatusMethodNotAllowed)
		return
	}
	if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		http.Error(w, "incorrect rpcstub handshake, expected a websocket upgrade", http.StatusBadRequest)
		return
	}

	session, err := uuid.GenerateUUID()
	if err != nil {
		logger.Warningf("Failed to generate session id for %s: %s", r.RemoteAddr, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := s.ws.Upgrade(r, w, nil)
	if err != nil {
		logger.Debugf("Websocket upgrade error from %s: %s", r.RemoteAddr, err)
		return
	}
	defer conn.Close()

	tag := pretty.Abbrev(session, 8)
	var rx stub.Receiver = conn
	if s.debugLog {
		rx = stub.DebugReceiver(tag.String(), conn)
	}
	remote := stub.New(rx)
	remote.PendingLimit = s.pendingLimit
	remote.PendingDiscard = s.pendingDiscard
	if err := registerDemo(remote); err != nil {
		logger.Warningf("[%s] Failed to register handlers: %s", tag, err)
		return
	}

	logger.Infof("[%s] Connected: %s (session %s)", tag, r.RemoteAddr, session)
	if err := remote.Serve(rx); err != nil && err != io.EOF {
		logger.Warningf("[%s] Connection ended: %s", tag, err)
		return
	}
	logger.Infof("[%s] Disconnected: %s", tag, r.RemoteAddr)
}

// newHandler routes the websocket endpoint at prefix and, if staticDir is
// set, serves files from it for every other path.
func newHandler(srv *server, prefix string, staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(prefix, srv)
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}
