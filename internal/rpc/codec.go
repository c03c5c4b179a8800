package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// Encode converts v (a JSON-encodable struct) into a Struct message.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("rpc encode: %w", err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("rpc encode: %w", err)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("rpc encode: %w", err)
	}
	return s, nil
}

// Decode fills v from a Struct message. A nil message decodes as {}.
func Decode(s *structpb.Struct, v any) error {
	var m map[string]any
	if s != nil {
		m = s.AsMap()
	}
	if m == nil {
		m = map[string]any{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("rpc decode: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("rpc decode: %w", err)
	}
	return nil
}
