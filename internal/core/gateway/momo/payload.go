package momo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var ErrMalformedPayload = errors.New("momo: malformed notification body")

// Payload is a decoded IPN body. Numbers keep their literal wire text so the
// signing string matches what MoMo signed.
type Payload struct {
	values map[string]any
	raw    json.RawMessage
}

// ParsePayload decodes a JSON object. Anything else is rejected.
func ParsePayload(body []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if values == nil {
		return Payload{}, fmt.Errorf("%w: body is not a JSON object", ErrMalformedPayload)
	}
	if dec.More() {
		return Payload{}, fmt.Errorf("%w: trailing data", ErrMalformedPayload)
	}

	return Payload{values: values, raw: append(json.RawMessage(nil), bytes.TrimSpace(body)...)}, nil
}

// Field renders a top-level field the way it appears on the wire. Missing,
// null and nested values render as "".
func (p Payload) Field(name string) string {
	switch v := p.values[name].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func (p Payload) Fields(names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, n := range names {
		out[n] = p.Field(n)
	}
	return out
}

// Raw is the notification body exactly as received.
func (p Payload) Raw() json.RawMessage { return p.raw }

// ResultCode parses resultCode. ok is false when it is missing or not an integer.
func (p Payload) ResultCode() (code int, ok bool) {
	n, err := strconv.Atoi(p.Field("resultCode"))
	if err != nil {
		return 0, false
	}
	return n, true
}
