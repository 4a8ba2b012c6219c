package stub

import "context"

// Service represents a remote service that can be called.
type Service interface {
	Call(ctx context.Context, result interface{}, method string, params ...interface{}) error
}
