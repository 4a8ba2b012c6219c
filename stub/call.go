package stub

import (
	"context"
	"encoding/json"
	"sync"
)

// Call is the eventual result of an outbound request. It resolves exactly
// once: the first resolution wins and later ones are ignored.
type Call struct {
	ID   int64
	Name string

	once   sync.Once
	done   chan struct{}
	result json.RawMessage
	err    error
}

func newCall(id int64, name string) *Call {
	return &Call{
		ID:   id,
		Name: name,
		done: make(chan struct{}),
	}
}

// resolve completes the call and reports whether this was the first
// resolution.
func (c *Call) resolve(result json.RawMessage, err error) bool {
	ok := false
	c.once.Do(func() {
		c.result = result
		c.err = err
		ok = true
		close(c.done)
	})
	return ok
}

// Done is closed once the call resolves.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Result returns the raw reply value and error of a resolved call. It must
// only be used after Done is closed.
func (c *Call) Result() (json.RawMessage, error) {
	return c.result, c.err
}

// Wait blocks until the call resolves or ctx ends.
func (c *Call) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unmarshal waits for the call and decodes its value into result. A nil
// result or a null value is not decoded.
func (c *Call) Unmarshal(ctx context.Context, result interface{}) error {
	if err := c.Wait(ctx); err != nil {
		return err
	}
	return c.decode(result)
}

// decode must only be called once the call has resolved.
func (c *Call) decode(result interface{}) error {
	if c.err != nil {
		return c.err
	}
	if result == nil || isNull(c.result) {
		return nil
	}
	return json.Unmarshal(c.result, result)
}
