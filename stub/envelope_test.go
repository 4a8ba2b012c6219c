package stub

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		encode func() ([]byte, error)
		want   string
	}{
		{
			name:   "request",
			encode: func() ([]byte, error) { return EncodeRequest(0, "add", []interface{}{2, 3}) },
			want:   `{"rpcId":0,"direction":"request","eventName":"add","args":[2,3]}`,
		},
		{
			name:   "request without args",
			encode: func() ([]byte, error) { return EncodeRequest(4, "ping", nil) },
			want:   `{"rpcId":4,"direction":"request","eventName":"ping","args":[]}`,
		},
		{
			name:   "reply",
			encode: func() ([]byte, error) { return EncodeReply(7, 5) },
			want:   `{"rpcId":7,"direction":"reply","value":5}`,
		},
		{
			name:   "null reply",
			encode: func() ([]byte, error) { return EncodeReply(8, nil) },
			want:   `{"rpcId":8,"direction":"reply","value":null}`,
		},
		{
			name: "error reply",
			encode: func() ([]byte, error) {
				return EncodeErrorReply(1, &RemoteError{Code: ErrCodeHandler, Message: "boom"})
			},
			want: `{"rpcId":1,"direction":"reply","value":null,"error":{"code":-32000,"message":"boom"}}`,
		},
	}

	for _, tc := range tests {
		got, err := tc.encode()
		if err != nil {
			t.Errorf("%s: %s", tc.name, err)
			continue
		}
		if string(got) != tc.want {
			t.Errorf("%s:\n   got: %s\n  want: %s", tc.name, got, tc.want)
		}
	}
}

func TestEncodeUnsupportedValue(t *testing.T) {
	if _, err := EncodeRequest(0, "bad", []interface{}{make(chan int)}); err == nil {
		t.Error("expected encoding error for a channel argument")
	}
	if _, err := EncodeReply(0, func() {}); err == nil {
		t.Error("expected encoding error for a func value")
	}
}

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		raw  string
		want *Envelope
	}{
		{
			raw: `{"rpcId":0,"direction":"request","eventName":"echo","args":[1,"a",true]}`,
			want: &Envelope{
				ID: 0, Direction: DirectionRequest, EventName: "echo",
				Args: json.RawMessage(`[1,"a",true]`),
			},
		},
		{
			raw: `{"rpcId":3,"direction":"request","eventName":"ping"}`,
			want: &Envelope{
				ID: 3, Direction: DirectionRequest, EventName: "ping",
				Args: json.RawMessage(`[]`),
			},
		},
		{
			raw: `{"rpcId":5,"direction":"reply","value":{"a":[1,2]},"extra":"ignored"}`,
			want: &Envelope{
				ID: 5, Direction: DirectionReply,
				Value: json.RawMessage(`{"a":[1,2]}`),
			},
		},
		{
			raw: `{"rpcId":6,"direction":"reply"}`,
			want: &Envelope{
				ID: 6, Direction: DirectionReply,
				Value: json.RawMessage(`null`),
			},
		},
		{
			raw: `{"rpcId":9,"direction":"reply","value":null,"error":{"code":-32000,"message":"nope"}}`,
			want: &Envelope{
				ID: 9, Direction: DirectionReply,
				Value: json.RawMessage(`null`),
				Error: &RemoteError{Code: -32000, Message: "nope"},
			},
		},
		{
			raw: `{"rpcId":10,"direction":"reply","value":3,"error":"legacy"}`,
			want: &Envelope{
				ID: 10, Direction: DirectionReply,
				Value: json.RawMessage(`3`),
			},
		},
		{
			raw: `{"rpcId":11,"direction":"reply","value":4,"error":{"code":"x"}}`,
			want: &Envelope{
				ID: 11, Direction: DirectionReply,
				Value: json.RawMessage(`4`),
			},
		},
	}

	for _, tc := range tests {
		got, err := DecodeEnvelope([]byte(tc.raw))
		if err != nil {
			t.Errorf("%s: unexpected error: %s", tc.raw, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("%s: envelope mismatch (-want +got):\n%s", tc.raw, diff)
		}
	}
}

func TestDecodeMalformedEnvelope(t *testing.T) {
	malformed := []string{
		``,
		`not json`,
		`42`,
		`null`,
		`[1,2,3]`,
		`{"hello":"world"}`,
		`{"direction":"request","eventName":"add","args":[]}`,
		`{"rpcId":"1","direction":"reply","value":1}`,
		`{"rpcId":1.5,"direction":"reply","value":1}`,
		`{"rpcId":1,"direction":"sideways"}`,
		`{"rpcId":1,"direction":"request","eventName":"add","args":{"a":1}}`,
	}

	for _, raw := range malformed {
		_, err := DecodeEnvelope([]byte(raw))
		if _, ok := err.(ErrMalformedEnvelope); !ok {
			t.Errorf("%q: expected ErrMalformedEnvelope, got: %v", raw, err)
		}
	}
}
