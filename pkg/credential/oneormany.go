/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// OneOrMany decodes a JSON array preferentially and falls back to a single
// value, and re-encodes in the original shape. Schema-inconsistent issuers
// emit the same field both ways, so shape preservation is a correctness
// requirement for interop, not a convenience. null is never accepted; wrap
// the field in a pointer when it is nullable.
type OneOrMany[T any] struct {
	values []T
	single bool
}

// One wraps a single value.
func One[T any](v T) OneOrMany[T] {
	return OneOrMany[T]{values: []T{v}, single: true}
}

// Many wraps a slice of values.
func Many[T any](vs []T) OneOrMany[T] {
	return OneOrMany[T]{values: vs}
}

// AsArray returns the values regardless of wire shape.
func (o OneOrMany[T]) AsArray() []T {
	return o.values
}

// IsSingle reports whether the wire shape was a bare value.
func (o OneOrMany[T]) IsSingle() bool {
	return o.single
}

// MarshalJSON reproduces the original shape: a bare value for One, an array
// for Many. A nil value set encodes as an empty array, never null, so the
// output always round-trips through UnmarshalJSON.
func (o OneOrMany[T]) MarshalJSON() ([]byte, error) {
	if o.single {
		return json.Marshal(o.values[0])
	}

	if o.values == nil {
		return []byte("[]"), nil
	}

	return json.Marshal(o.values)
}

// UnmarshalJSON decodes an array preferentially, falling back to a single
// value. null is rejected.
func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return errors.New("null is not accepted for one-or-many value")
	}

	var many []T

	if err := json.Unmarshal(trimmed, &many); err == nil {
		*o = OneOrMany[T]{values: many}

		return nil
	}

	var one T

	if err := json.Unmarshal(trimmed, &one); err != nil {
		return fmt.Errorf("value is neither %T nor an array of them: %w", one, err)
	}

	*o = OneOrMany[T]{values: []T{one}, single: true}

	return nil
}
