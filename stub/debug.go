package stub

import "github.com/vipnode/rpcstub/internal/pretty"

// DebugTransport wraps t so that every outbound frame is logged at debug
// level with the given prefix.
func DebugTransport(prefix string, t Transport) Transport {
	return TransportFunc(func(payload []byte) error {
		logger.Debugf("%s -> %s", prefix, pretty.Frame(payload))
		err := t.Send(payload)
		if err != nil {
			logger.Debugf("%s -> send failed: %s", prefix, err)
		}
		return err
	})
}

// DebugHook wraps next so that every inbound frame is logged at debug level
// with the given prefix.
func DebugHook(prefix string, next MessageFunc) MessageFunc {
	return func(data []byte) {
		logger.Debugf("%s <- %s", prefix, pretty.Frame(data))
		next(data)
	}
}

// DebugReceiver wraps r so that every frame in both directions is logged at
// debug level with the given prefix.
func DebugReceiver(prefix string, r Receiver) Receiver {
	return debugReceiver{
		Transport: DebugTransport(prefix, r),
		prefix:    prefix,
		r:         r,
	}
}

type debugReceiver struct {
	Transport
	prefix string
	r      Receiver
}

func (d debugReceiver) Receive(sink MessageFunc) error {
	return d.r.Receive(DebugHook(d.prefix, sink))
}
