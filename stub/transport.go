package stub

// Transport sends one frame to the peer. Delivery is fire-and-forget.
type Transport interface {
	Send(payload []byte) error
}

// TransportFunc adapts a function to a Transport.
type TransportFunc func(payload []byte) error

func (f TransportFunc) Send(payload []byte) error {
	return f(payload)
}

// MessageFunc receives one inbound frame.
type MessageFunc func(data []byte)

// Hook returns a MessageFunc that delivers frames to the stub and hands the
// frames that are not envelopes to next, if any.
func (s *Stub) Hook(next MessageFunc) MessageFunc {
	return func(data []byte) {
		if !s.OnMessage(data) && next != nil {
			next(data)
		}
	}
}

// Socket is a Transport with a replaceable inbound hook.
type Socket interface {
	Transport
	OnMessage() MessageFunc
	SetOnMessage(MessageFunc)
}

// Attach binds a new Stub to sock. The previous hook of sock keeps receiving
// the frames that the stub does not recognize.
func Attach(sock Socket) *Stub {
	s := New(sock)
	sock.SetOnMessage(s.Hook(sock.OnMessage()))
	return s
}

// Receiver is a Transport that pushes inbound frames to a sink until the
// connection ends.
type Receiver interface {
	Transport
	Receive(sink MessageFunc) error
}

// Serve delivers the frames of r to the stub until r returns, then closes the
// stub and returns the error of r.
func (s *Stub) Serve(r Receiver) error {
	defer s.Close()
	return r.Receive(s.Hook(nil))
}
