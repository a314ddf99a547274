// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package delta

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/juju/errors"
)

// MarshalJSON implements json.Marshaler. A delta is encoded as a three
// element array: kind, verb and the entity data.
func (d Delta) MarshalJSON() ([]byte, error) {
	data := d.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	fmt.Fprintf(&buf, "%q,%q,", d.Kind, d.Verb)
	buf.Write(b)
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Delta) UnmarshalJSON(data []byte) error {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return err
	}
	if len(elements) != 3 {
		return errors.Errorf("expected 3 elements in top-level of JSON but got %d", len(elements))
	}
	var kind Kind
	if err := json.Unmarshal(elements[0], &kind); err != nil {
		return err
	}
	if !kind.Valid() {
		return errors.Errorf("unexpected entity kind %q", kind)
	}
	var verb Verb
	if err := json.Unmarshal(elements[1], &verb); err != nil {
		return err
	}
	if !verb.Valid() {
		return errors.Errorf("unexpected operation %q", verb)
	}
	var entity map[string]interface{}
	if err := json.Unmarshal(elements[2], &entity); err != nil {
		return err
	}
	if entity == nil {
		return errors.Errorf("missing %s data", kind)
	}
	d.Kind = kind
	d.Verb = verb
	d.Data = entity
	return nil
}

// DecodeBatch decodes a JSON array of deltas. Elements that cannot be
// decoded are reported individually and do not prevent the rest of the
// batch from being returned.
func DecodeBatch(data []byte) ([]Delta, []error, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, errors.Annotate(err, "decoding delta batch")
	}
	deltas := make([]Delta, 0, len(raw))
	var bad []error
	for i, r := range raw {
		var d Delta
		if err := json.Unmarshal(r, &d); err != nil {
			bad = append(bad, errors.Annotatef(err, "delta %d", i))
			continue
		}
		deltas = append(deltas, d)
	}
	return deltas, bad, nil
}
