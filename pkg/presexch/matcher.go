/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"
)

// Matcher evaluates JSONPath-like field constraints against a credential's
// serialized claims. The same matcher decides eligibility on the build side
// and re-extracts fields on the verify side, so the pattern semantics
// (unanchored Go regexp over the value's string form) stay consistent.
type Matcher struct {
	builder gval.Language
}

// NewMatcher creates a Matcher.
func NewMatcher() *Matcher {
	return &Matcher{builder: gval.Full(jsonpath.PlaceholderExtension())}
}

// Match evaluates a JSONPath expression against the claims document,
// returning the first match or false.
func (m *Matcher) Match(doc interface{}, path string) (interface{}, bool) {
	evaluable, err := m.builder.NewEvaluable(path)
	if err != nil {
		return nil, false
	}

	value, err := evaluable(context.Background(), doc)
	if err != nil || value == nil {
		return nil, false
	}

	return value, true
}

// MatchField probes each of the field's paths and returns the first matching
// value that satisfies the field's filter. A required field with no
// satisfying match fails.
func (m *Matcher) MatchField(doc interface{}, field *Field) (interface{}, error) {
	for _, path := range field.Path {
		value, ok := m.Match(doc, path)
		if !ok {
			continue
		}

		if err := checkFilter(value, field.Filter); err != nil {
			return nil, fmt.Errorf("field path %q: %w", path, err)
		}

		return value, nil
	}

	return nil, fmt.Errorf("no value found at paths %v", field.Path)
}

func checkFilter(value interface{}, filter *Filter) error {
	if filter == nil {
		return nil
	}

	if filter.Type != nil {
		if name := jsonTypeName(value); name != *filter.Type {
			return fmt.Errorf("value type %q does not satisfy filter type %q", name, *filter.Type)
		}
	}

	if filter.Pattern != "" {
		pattern, err := regexp.Compile(filter.Pattern)
		if err != nil {
			return fmt.Errorf("compile filter pattern: %w", err)
		}

		if !pattern.MatchString(stringForm(value)) {
			return fmt.Errorf("value does not satisfy filter pattern %q", filter.Pattern)
		}
	}

	return nil
}

func jsonTypeName(value interface{}) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number, int, int64:
		return "number"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func stringForm(value interface{}) string {
	if s, ok := value.(string); ok {
		return s
	}

	return fmt.Sprint(value)
}
