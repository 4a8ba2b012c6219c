package stub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Handler serves inbound requests for one event name.
//
// A non-nil value or error returned by ServeRPC is sent as the reply. A
// handler that completes later returns (nil, nil) and calls req.Return or
// req.Fail once it is done. If it never does, no reply is sent.
//
// The handlers registered for a name run one after another on the goroutine
// that serves the request, so ServeRPC must not block: a handler that has
// slow work to do starts it elsewhere and replies with req.Return.
type Handler interface {
	ServeRPC(ctx context.Context, req *Request) (interface{}, error)
}

// HandlerFunc adapts an ordinary function to a Handler.
type HandlerFunc func(ctx context.Context, req *Request) (interface{}, error)

func (f HandlerFunc) ServeRPC(ctx context.Context, req *Request) (interface{}, error) {
	return f(ctx, req)
}

// Request is one invocation of a handler. Each handler registered for an
// event name receives its own Request, and each Request produces at most one
// reply.
type Request struct {
	ID   int64
	Name string
	// Args is the raw JSON array of positional arguments.
	Args json.RawMessage

	once    sync.Once
	respond func(value interface{}, err error)
}

// Return replies with value. It can be called from any goroutine, at any
// time. Only the first of Return, Fail or the handler's own result is sent;
// Return reports whether it was the one.
func (r *Request) Return(value interface{}) bool {
	return r.complete(value, nil)
}

// Fail replies with err in place of a value. Like Return, only the first
// completion counts.
func (r *Request) Fail(err error) bool {
	if err == nil {
		err = errors.New("handler failed")
	}
	return r.complete(nil, err)
}

func (r *Request) complete(value interface{}, err error) bool {
	ok := false
	r.once.Do(func() {
		ok = true
		if r.respond != nil {
			r.respond(value, err)
		}
	})
	return ok
}

// Values decodes the arguments into generic JSON values: float64, string,
// bool, nil, []interface{} and map[string]interface{}.
func (r *Request) Values() ([]interface{}, error) {
	var args []interface{}
	if isNull(r.Args) {
		return args, nil
	}
	if err := json.Unmarshal(r.Args, &args); err != nil {
		return nil, err
	}
	return args, nil
}

// UnmarshalArgs decodes positional arguments into dst. Missing arguments
// leave their destination untouched and extra arguments are ignored. A nil
// destination skips its argument.
func (r *Request) UnmarshalArgs(dst ...interface{}) error {
	var raw []json.RawMessage
	if !isNull(r.Args) {
		if err := json.Unmarshal(r.Args, &raw); err != nil {
			return err
		}
	}
	for i, d := range dst {
		if i >= len(raw) {
			break
		}
		if d == nil {
			continue
		}
		if err := json.Unmarshal(raw[i], d); err != nil {
			return fmt.Errorf("argument %d: %s", i, err)
		}
	}
	return nil
}

// handlerTable maps event names to handlers in registration order.
type handlerTable struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func (t *handlerTable) add(name string, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.handlers == nil {
		t.handlers = map[string][]Handler{}
	}
	t.handlers[name] = append(t.handlers[name], h)
}

// get returns a snapshot of the handlers registered for name.
func (t *handlerTable) get(name string) []Handler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	handlers := t.handlers[name]
	if len(handlers) == 0 {
		return nil
	}
	snapshot := make([]Handler, len(handlers))
	copy(snapshot, handlers)
	return snapshot
}

type contextKey string

var ctxStub contextKey = "stub"

// FromContext returns the Stub that received the request being served. It
// is used by handlers to call back to the peer.
func FromContext(ctx context.Context) (*Stub, error) {
	s, ok := ctx.Value(ctxStub).(*Stub)
	if !ok {
		return nil, ErrContextMissingValue{ctxStub}
	}
	return s, nil
}
