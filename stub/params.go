package stub

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// parsePositionalArguments decodes the args array of a request into values
// of the given types. Missing trailing arguments are zero values, extra
// arguments are an error.
func parsePositionalArguments(rawArgs json.RawMessage, types []reflect.Type) ([]reflect.Value, error) {
	var args []json.RawMessage
	if !isNull(rawArgs) {
		if !isArray(rawArgs) {
			return nil, errors.New("non-array args")
		}
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return nil, err
		}
	}
	if len(args) > len(types) {
		return nil, fmt.Errorf("too many arguments: expected %d, got %d", len(types), len(args))
	}

	values := make([]reflect.Value, 0, len(types))
	for i, argType := range types {
		value := reflect.New(argType)
		if i < len(args) {
			if err := json.Unmarshal(args[i], value.Interface()); err != nil {
				return nil, fmt.Errorf("invalid argument %d: %s", i, err)
			}
		}
		values = append(values, value.Elem())
	}
	return values, nil
}
