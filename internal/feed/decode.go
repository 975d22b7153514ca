package feed

import (
	"bytes"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/rickgao/interaction-feed/internal/model"
)

// ErrDecodeFailure matches every error returned by Decode.
var ErrDecodeFailure = errors.New("decode failure")

// DecodeError describes why a payload did not match the event schema.
type DecodeError struct {
	Field  string // Offending field, empty when the payload itself is unusable
	Reason string
	Err    error // Underlying parser error, if any
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode failure: %s", e.Reason)
	}
	return fmt.Sprintf("decode failure: %s: %s", e.Field, e.Reason)
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDecodeFailure}
	}
	return []error{ErrDecodeFailure, e.Err}
}

// eventWire is the inbound schema. Pointers distinguish absent/null from "".
type eventWire struct {
	Identifier      *string         `json:"identifier"`
	ProductName     *string         `json:"productName"`
	InteractionType *string         `json:"interactionType"`
	Timestamp       json.RawMessage `json:"timestamp"`
}

// Decode parses one inbound payload. Every schema field must be present and
// non-null; identifier, productName and interactionType must be strings and
// timestamp a string or number. Unknown fields are ignored.
func Decode(raw []byte) (model.InteractionEvent, error) {
	var w eventWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return model.InteractionEvent{}, &DecodeError{Reason: "not a JSON object matching the event schema", Err: err}
	}

	required := []struct {
		name string
		val  *string
	}{
		{"identifier", w.Identifier},
		{"productName", w.ProductName},
		{"interactionType", w.InteractionType},
	}
	for _, f := range required {
		if f.val == nil {
			return model.InteractionEvent{}, &DecodeError{Field: f.name, Reason: "missing"}
		}
	}

	ts, err := decodeTimestamp(w.Timestamp)
	if err != nil {
		return model.InteractionEvent{}, err
	}

	return model.InteractionEvent{
		Identifier:      *w.Identifier,
		ProductName:     *w.ProductName,
		InteractionType: *w.InteractionType,
		Timestamp:       ts,
	}, nil
}

// decodeTimestamp accepts a JSON string, or a number kept as its literal text.
func decodeTimestamp(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", &DecodeError{Field: "timestamp", Reason: "missing"}
	}

	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", &DecodeError{Field: "timestamp", Reason: "invalid string", Err: err}
		}
		return s, nil
	case c == '-' || (c >= '0' && c <= '9'):
		return string(raw), nil
	default:
		return "", &DecodeError{Field: "timestamp", Reason: "must be a string or number"}
	}
}

// Encode renders an event in the inbound wire format.
func Encode(evt model.InteractionEvent) ([]byte, error) {
	return json.Marshal(evt)
}
