package stub

import (
	"encoding/json"
	"fmt"
)

const (
	DirectionRequest = "request"
	DirectionReply   = "reply"
)

const (
	ErrCodeInvalidArgs = -32602
	ErrCodeInternal    = -32603
	ErrCodeHandler     = -32000
)

// Envelope is a single protocol message. Requests carry EventName and Args,
// replies carry Value and, when the handler failed, Error.
type Envelope struct {
	ID        int64           `json:"rpcId"`
	Direction string          `json:"direction"`
	EventName string          `json:"eventName,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
	Error     *RemoteError    `json:"error,omitempty"`
}

func (env *Envelope) String() string {
	if env.Direction == DirectionRequest {
		return fmt.Sprintf("request(%d, %q, %s)", env.ID, env.EventName, env.Args)
	}
	if env.Error != nil {
		return fmt.Sprintf("reply(%d, error %s)", env.ID, env.Error)
	}
	return fmt.Sprintf("reply(%d, %s)", env.ID, env.Value)
}

// RemoteError is the failure reported by the peer's handler in place of a
// reply value.
type RemoteError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (err *RemoteError) Error() string {
	return fmt.Sprintf("%d: %s", err.Code, err.Message)
}

// ErrorCode returns the numeric code of the error.
func (err *RemoteError) ErrorCode() int {
	return err.Code
}

var nullValue = json.RawMessage("null")
var emptyArgs = json.RawMessage("[]")

// EncodeRequest returns the wire form of a request envelope.
func EncodeRequest(id int64, name string, args []interface{}) ([]byte, error) {
	env := Envelope{
		ID:        id,
		Direction: DirectionRequest,
		EventName: name,
		Args:      emptyArgs,
	}
	if len(args) > 0 {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, err
		}
		env.Args = raw
	}
	return json.Marshal(&env)
}

// EncodeReply returns the wire form of a reply envelope carrying value.
func EncodeReply(id int64, value interface{}) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Envelope{
		ID:        id,
		Direction: DirectionReply,
		Value:     raw,
	})
}

// EncodeErrorReply returns the wire form of a reply envelope reporting err.
// The value is null so peers that ignore the error field still resolve.
func EncodeErrorReply(id int64, err error) ([]byte, error) {
	remoteErr, ok := err.(*RemoteError)
	if !ok {
		remoteErr = &RemoteError{
			Code:    ErrCodeHandler,
			Message: err.Error(),
		}
	}
	return json.Marshal(&Envelope{
		ID:        id,
		Direction: DirectionReply,
		Value:     nullValue,
		Error:     remoteErr,
	})
}

// wireEnvelope keeps rpcId raw so a missing or non-integer id can be told
// apart from id 0.
type wireEnvelope struct {
	ID        json.RawMessage `json:"rpcId"`
	Direction string          `json:"direction"`
	EventName string          `json:"eventName"`
	Args      json.RawMessage `json:"args"`
	Value     json.RawMessage `json:"value"`
	Error     json.RawMessage `json:"error"`
}

// DecodeEnvelope parses a frame. Anything that is not a JSON object with an
// integer rpcId and a known direction is reported as ErrMalformedEnvelope.
// Unknown fields are ignored.
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, ErrMalformedEnvelope{Reason: err.Error()}
	}
	if isNull(w.ID) {
		return nil, ErrMalformedEnvelope{Reason: "missing rpcId"}
	}
	env := &Envelope{
		Direction: w.Direction,
		EventName: w.EventName,
		Error:     decodeRemoteError(w.Error),
	}
	if err := json.Unmarshal(w.ID, &env.ID); err != nil {
		return nil, ErrMalformedEnvelope{Reason: fmt.Sprintf("invalid rpcId %s", w.ID)}
	}

	switch w.Direction {
	case DirectionRequest:
		env.Args = w.Args
		if isNull(env.Args) {
			env.Args = emptyArgs
		} else if !isArray(env.Args) {
			return nil, ErrMalformedEnvelope{Reason: "args is not an array"}
		}
	case DirectionReply:
		env.Value = w.Value
		if len(env.Value) == 0 {
			env.Value = nullValue
		}
	default:
		return nil, ErrMalformedEnvelope{Reason: fmt.Sprintf("unknown direction %q", w.Direction)}
	}
	return env, nil
}

// decodeRemoteError returns the error object of a reply. Anything else in the
// error field is ignored like an unknown field.
func decodeRemoteError(raw json.RawMessage) *RemoteError {
	if !isObject(raw) {
		return nil
	}
	var remoteErr RemoteError
	if err := json.Unmarshal(raw, &remoteErr); err != nil {
		return nil
	}
	return &remoteErr
}
