package stub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alexcesaro/log"
	"github.com/alexcesaro/log/golog"
)

// testLogs collects the package log output of the whole test run. The
// logger is set once here since handlers of earlier tests may still be
// logging from their dispatch goroutines.
var testLogs syncBuffer

func TestMain(m *testing.M) {
	SetLogger(golog.New(&testLogs, log.Debug))
	os.Exit(m.Run())
}

type FruitService struct{}

func (f *FruitService) Apple() string {
	return "Apple"
}

func (f *FruitService) Banana() error {
	return nil
}

func (f *FruitService) Cherry() (string, error) {
	return "Cherry", nil
}

func (f *FruitService) Durian() error {
	return errors.New("durian failure")
}

type Arith struct{}

func (a *Arith) Add(x, y int) int {
	return x + y
}

type Fib struct{}

func (f *Fib) Fibonacci(ctx context.Context, a int, b int, steps int) (int, error) {
	service, err := FromContext(ctx)
	if err != nil {
		return 0, err
	}
	a, b = b, a+b
	if steps <= 0 {
		return b, nil
	}
	if err := service.Call(ctx, &b, "fibonacci", a, b, steps-1); err != nil {
		return 0, err
	}
	return b, nil
}

// recorder is a Transport that keeps every frame it is asked to send.
type recorder struct {
	mu     sync.Mutex
	frames [][]byte
	sent   chan []byte
	err    error
}

func newRecorder() *recorder {
	return &recorder{sent: make(chan []byte, 64)}
}

func (r *recorder) Send(payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, payload)
	r.sent <- payload
	return nil
}

func (r *recorder) Frames() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	frames := make([][]byte, len(r.frames))
	copy(frames, r.frames)
	return frames
}

// next waits for the next sent frame and decodes it.
func (r *recorder) next(t *testing.T) *Envelope {
	t.Helper()
	select {
	case frame := <-r.sent:
		env, err := DecodeEnvelope(frame)
		if err != nil {
			t.Fatalf("recorded frame is not an envelope: %s", err)
		}
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a frame")
	}
	return nil
}

// quiet asserts that nothing is sent for a little while.
func (r *recorder) quiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case frame := <-r.sent:
		t.Errorf("unexpected frame: %s", frame)
	case <-time.After(d):
	}
}

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func request(id int64, name string, args string) []byte {
	return []byte(fmt.Sprintf(`{"rpcId":%d,"direction":"request","eventName":%q,"args":%s}`, id, name, args))
}

func reply(id int64, value string) []byte {
	return []byte(fmt.Sprintf(`{"rpcId":%d,"direction":"reply","value":%s}`, id, value))
}

func assertEqualJSON(t *testing.T, a, b interface{}, format string, args ...interface{}) {
	t.Helper()

	aa, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	bb, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(aa, bb) {
		prefix := fmt.Sprintf(format, args...)
		t.Errorf(prefix+"\n   got: %q\n  want: %q", aa, bb)
	}
}
