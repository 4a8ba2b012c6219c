package stub

import "encoding/json"

// Helpers for JSON parsing

// isArray returns true if the message is a JSON array (starts
// with '[', spaces skipped).
func isArray(raw json.RawMessage) bool {
	for _, b := range raw {
		if isSpace(b) {
			continue
		}
		return b == '['
	}
	return false
}

// isObject returns true if the message is a JSON object (starts with '{',
// spaces skipped).
func isObject(raw json.RawMessage) bool {
	for _, b := range raw {
		if isSpace(b) {
			continue
		}
		return b == '{'
	}
	return false
}

// isSpace returns true if the byte is considered a space in JSON syntax.
func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// isNull returns true if the message is empty or the JSON literal null.
func isNull(raw json.RawMessage) bool {
	raw = trimSpace(raw)
	return len(raw) == 0 || string(raw) == "null"
}

func trimSpace(raw json.RawMessage) json.RawMessage {
	for len(raw) > 0 && isSpace(raw[len(raw)-1]) {
		raw = raw[:len(raw)-1]
	}
	for len(raw) > 0 && isSpace(raw[0]) {
		raw = raw[1:]
	}
	return raw
}
