package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type field struct {
	key   string
	value any
}

// marshalOrdered writes a JSON object with its members in the order given
func marshalOrdered(fields []field) ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')

	for idx, f := range fields {
		if idx > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(f.value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", f.key, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}
