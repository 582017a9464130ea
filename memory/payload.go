package memory

import (
	"encoding/json"
	"errors"
	"strings"
)

// Payload is the context service's answer for a query. Raw holds the body exactly as received.
type Payload struct {
	Raw     json.RawMessage
	Context string
	Debug   json.RawMessage
}

var errNotObject = errors.New("expected a JSON object")

func ParsePayload(raw []byte) (p Payload, err error) {
	var fields map[string]json.RawMessage
	if err = json.Unmarshal(raw, &fields); err != nil {
		return p, err
	}
	if fields == nil {
		return p, errNotObject
	}
	p.Raw = json.RawMessage(raw)
	if v, ok := fields["context"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			p.Context = s
		} else if string(v) != "null" {
			p.Context = string(v)
		}
	}
	p.Debug = fields["debug"]
	return p, nil
}

// Used is true when the context text has any non-whitespace content.
func (p Payload) Used() bool {
	return strings.TrimSpace(p.Context) != ""
}

// Items is the length of debug.items, or zero when debug is not shaped that way.
func (p Payload) Items() int {
	if len(p.Debug) == 0 {
		return 0
	}
	var d struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(p.Debug, &d); err != nil {
		return 0
	}
	return len(d.Items)
}
