package stub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vipnode/rpcstub/internal/pretty"
)

// ErrNoTransport is the result of calls on a Stub without a Transport.
var ErrNoTransport = errors.New("stub has no transport")

var _ Service = &Stub{}

// Stub correlates requests and replies over a single connection. It is both
// the caller and the callee for that connection, so either side can call the
// other.
//
// A Stub is bound to one connection for the lifetime of that connection;
// Close it when the connection ends.
type Stub struct {
	// nextID is accessed atomically and kept first for 64-bit alignment.
	nextID int64

	Transport

	// PendingLimit is the number of calls to hold before the oldest get
	// discarded. Zero keeps every call until its reply arrives. (Optional)
	PendingLimit int
	// PendingDiscard is the number of oldest calls discarded when
	// PendingLimit is reached. (Optional)
	PendingDiscard int
	// ReplyOnce makes a request with several handlers send only the reply of
	// the first handler to complete. By default every handler replies under
	// the same id and the caller keeps the first to arrive. (Optional)
	ReplyOnce bool

	pending  pendingTable
	handlers handlerTable
}

// New returns a Stub that sends through t. Inbound frames must be delivered
// to OnMessage, see Attach and Serve.
func New(t Transport) *Stub {
	return &Stub{Transport: t}
}

// On registers a handler for name. Every handler registered for a name runs
// for each request, most recently registered first. There is no way to
// unregister.
func (s *Stub) On(name string, h Handler) {
	s.handlers.add(name, h)
}

// OnFunc registers a function as a handler for name.
func (s *Stub) OnFunc(name string, f func(ctx context.Context, req *Request) (interface{}, error)) {
	s.On(name, HandlerFunc(f))
}

// Go sends a request and returns its eventual result without waiting. The
// request is sent before Go returns.
func (s *Stub) Go(name string, args ...interface{}) *Call {
	id := atomic.AddInt64(&s.nextID, 1) - 1
	call := newCall(id, name)

	payload, err := EncodeRequest(id, name, args)
	if err != nil {
		call.resolve(nil, err)
		return call
	}
	if s.Transport == nil {
		call.resolve(nil, ErrNoTransport)
		return call
	}

	evicted, ok := s.pending.add(call, s.PendingLimit, s.PendingDiscard)
	for _, c := range evicted {
		logger.Warningf("Discarding pending call %d (%s): pending limit of %d reached", c.ID, c.Name, s.PendingLimit)
		c.resolve(nil, ErrPendingDiscarded)
	}
	if !ok {
		call.resolve(nil, ErrClosed)
		return call
	}

	if err := s.Send(payload); err != nil {
		s.pending.take(id)
		call.resolve(nil, err)
	}
	return call
}

// Call sends a request and waits for its reply, decoding the value into
// result. If ctx ends first the call is abandoned: a late reply is discarded.
func (s *Stub) Call(ctx context.Context, result interface{}, name string, args ...interface{}) error {
	call := s.Go(name, args...)
	select {
	case <-call.Done():
	case <-ctx.Done():
		if _, ok := s.pending.take(call.ID); ok {
			call.resolve(nil, ctx.Err())
		} else {
			// The reply was taken first and is being resolved.
			<-call.Done()
		}
	}
	return call.decode(result)
}

// Pending returns the number of calls waiting for a reply.
func (s *Stub) Pending() int {
	return s.pending.len()
}

// Close resolves every pending call with ErrClosed. Calls issued afterwards
// fail with ErrClosed. Handlers that are still running can still reply.
func (s *Stub) Close() error {
	for _, c := range s.pending.close() {
		c.resolve(nil, ErrClosed)
	}
	return nil
}

// OnMessage processes one inbound frame. It returns false if the frame is
// not an envelope, so that the caller can hand it to something else. Errors
// are logged and never returned: a bad frame does not affect the connection.
func (s *Stub) OnMessage(data []byte) bool {
	env, err := DecodeEnvelope(data)
	if err != nil {
		logger.Warningf("Couldn't parse message %q: %s", pretty.Frame(data), err)
		return false
	}

	switch env.Direction {
	case DirectionRequest:
		s.handleRequest(env)
	case DirectionReply:
		s.handleReply(env)
	}
	return true
}

func (s *Stub) handleRequest(env *Envelope) {
	handlers := s.handlers.get(env.EventName)
	if len(handlers) == 0 {
		logger.Warningf("Received request for unbound event: %s", env)
		return
	}
	go s.dispatch(env, handlers)
}

func (s *Stub) handleReply(env *Envelope) {
	call, ok := s.pending.take(env.ID)
	if !ok {
		logger.Warningf("Got reply for non-existent call: %s", env)
		return
	}
	if env.Error != nil {
		call.resolve(nil, env.Error)
		return
	}
	call.resolve(env.Value, nil)
}

// dispatch runs the handlers for one request in turn, most recently registered
// first.
func (s *Stub) dispatch(env *Envelope, handlers []Handler) {
	ctx := context.WithValue(context.Background(), ctxStub, s)

	var first sync.Once
	for i := len(handlers) - 1; i >= 0; i-- {
		req := &Request{
			ID:   env.ID,
			Name: env.EventName,
			Args: env.Args,
		}
		req.respond = func(value interface{}, err error) {
			if s.ReplyOnce {
				isFirst := false
				first.Do(func() { isFirst = true })
				if !isFirst {
					logger.Debugf("Suppressing extra reply for %s", env)
					return
				}
			}
			s.reply(env.ID, value, err)
		}
		s.invoke(ctx, handlers[i], req)
	}
}

// invoke runs a single handler. Panics are recovered here and replied as
// errors.
func (s *Stub) invoke(ctx context.Context, h Handler, req *Request) {
	defer func() {
		if r := recover(); r != nil {
			err := ErrPanic{Name: req.Name, Value: r}
			logger.Warningf("Recovered from handler: %s", err)
			req.complete(nil, &RemoteError{
				Code:    ErrCodeInternal,
				Message: err.Error(),
			})
		}
	}()

	value, err := h.ServeRPC(ctx, req)
	if err != nil {
		req.complete(nil, err)
		return
	}
	if value != nil {
		req.complete(value, nil)
	}
}

func (s *Stub) reply(id int64, value interface{}, replyErr error) {
	var payload []byte
	var err error
	if replyErr != nil {
		payload, err = EncodeErrorReply(id, replyErr)
	} else if payload, err = EncodeReply(id, value); err != nil {
		logger.Warningf("Failed to encode reply %d: %s", id, err)
		payload, err = EncodeErrorReply(id, &RemoteError{
			Code:    ErrCodeInternal,
			Message: fmt.Sprintf("failed to encode reply: %s", err),
		})
	}
	if err != nil {
		logger.Warningf("Dropping reply %d: %s", id, err)
		return
	}
	if s.Transport == nil {
		logger.Warningf("Dropping reply %d: %s", id, ErrNoTransport)
		return
	}
	if err := s.Send(payload); err != nil {
		logger.Warningf("Failed to send reply %d: %s", id, err)
	}
}
