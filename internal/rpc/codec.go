package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// jsonCodec lets Connect carry plain Go structs. It registers under the
// name "json", so Connect clients speaking application/json just work.
// Decoding is strict: unknown fields and trailing data are rejected, as they
// are on the REST side.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	if dec.More() {
		return fmt.Errorf("unmarshal %T: unexpected data after message", msg)
	}
	return nil
}
