package stub

// Pipe returns two stubs wired back to back in memory: frames sent by one
// are delivered to the other's OnMessage before Send returns. Useful for
// testing. Handlers still need to be registered.
func Pipe() (*Stub, *Stub) {
	a, b := &Stub{}, &Stub{}
	a.Transport = TransportFunc(func(payload []byte) error {
		b.OnMessage(payload)
		return nil
	})
	b.Transport = TransportFunc(func(payload []byte) error {
		a.OnMessage(payload)
		return nil
	})
	return a, b
}
