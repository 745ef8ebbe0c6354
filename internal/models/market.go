package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// UnmarshalJSON keeps every field of the pushed record and lifts "id" out.
// Numeric ids are accepted and keep their JSON number text, so 1234567 and
// "1234567" name the same listing.
func (m *MarketListing) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("market listing is not an object")
	}

	raw, ok := fields["id"]
	if !ok {
		return errors.New("market listing without id")
	}
	switch v := raw.(type) {
	case string:
		m.ID = v
	case json.Number:
		m.ID = v.String()
	default:
		return fmt.Errorf("market listing id has unsupported type %T", raw)
	}

	m.Fields = fields
	return nil
}

func (m MarketListing) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Fields)+1)
	for k, v := range m.Fields {
		out[k] = v
	}
	if _, ok := out["id"]; !ok {
		out["id"] = m.ID
	}
	return json.Marshal(out)
}
