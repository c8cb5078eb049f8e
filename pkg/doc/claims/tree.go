/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package claims provides the immutable claim tree a credential's claims are
// normalized into before any selective-disclosure logic runs. External JSON is
// converted into the explicit tagged tree first; no disclosure decision is
// ever taken on raw maps.
package claims

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags an element as scalar leaf, array or object.
type Kind int

// Element kinds.
const (
	KindLeaf Kind = iota
	KindArray
	KindObject
)

// Element is a node of the claim tree. Children of objects and arrays carry
// unique, order-preserved keys within their parent (array children are keyed
// by index). Disclosability is per-node and not inherited.
type Element struct {
	Key         string
	Disclosable bool
	Kind        Kind
	Value       interface{}
	Children    []*Element
}

// Tree is the claim tree of a single credential. The zero tree has no claims.
type Tree struct {
	Root []*Element
}

// BuildFromJSON builds a claim tree from a JSON object document, preserving
// the document's key order.
func BuildFromJSON(data []byte) (*Tree, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read claims document: %w", err)
	}

	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("claims document must be a JSON object, got %v", tok)
	}

	root, err := decodeObjectChildren(dec)
	if err != nil {
		return nil, err
	}

	return &Tree{Root: root}, nil
}

// Build builds a claim tree from an already-decoded JSON-like value. It is
// total over any such value; object keys are sorted for determinism since Go
// maps carry no order.
func Build(v interface{}) (*Tree, error) {
	el, err := buildElement("", v)
	if err != nil {
		return nil, err
	}

	if el.Kind != KindObject {
		return nil, fmt.Errorf("top-level claims must be an object, got kind %d", el.Kind)
	}

	return &Tree{Root: el.Children}, nil
}

func buildElement(key string, v interface{}) (*Element, error) {
	switch typed := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(typed))
		for k := range typed {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		el := &Element{Key: key, Kind: KindObject}

		for _, k := range keys {
			child, err := buildElement(k, typed[k])
			if err != nil {
				return nil, err
			}

			el.Children = append(el.Children, child)
		}

		return el, nil
	case []interface{}:
		el := &Element{Key: key, Kind: KindArray}

		for i, item := range typed {
			child, err := buildElement(strconv.Itoa(i), item)
			if err != nil {
				return nil, err
			}

			el.Children = append(el.Children, child)
		}

		return el, nil
	default:
		return &Element{Key: key, Kind: KindLeaf, Value: v}, nil
	}
}

func decodeObjectChildren(dec *json.Decoder) ([]*Element, error) {
	var children []*Element

	seen := map[string]bool{}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read object key: %w", err)
		}

		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", keyTok)
		}

		if seen[key] {
			return nil, fmt.Errorf("duplicate claim key %q", key)
		}

		seen[key] = true

		child, err := decodeValue(dec, key)
		if err != nil {
			return nil, err
		}

		children = append(children, child)
	}

	// consume closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read object end: %w", err)
	}

	return children, nil
}

func decodeValue(dec *json.Decoder, key string) (*Element, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read value for %q: %w", key, err)
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return &Element{Key: key, Kind: KindLeaf, Value: tok}, nil
	}

	switch delim {
	case '{':
		children, err := decodeObjectChildren(dec)
		if err != nil {
			return nil, err
		}

		return &Element{Key: key, Kind: KindObject, Children: children}, nil
	case '[':
		el := &Element{Key: key, Kind: KindArray}

		for i := 0; dec.More(); i++ {
			child, err := decodeValue(dec, strconv.Itoa(i))
			if err != nil {
				return nil, err
			}

			el.Children = append(el.Children, child)
		}

		// consume closing ']'
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("read array end: %w", err)
		}

		return el, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}

// Interface rebuilds the plain JSON-like value of an element.
func (e *Element) Interface() interface{} {
	switch e.Kind {
	case KindObject:
		obj := make(map[string]interface{}, len(e.Children))
		for _, child := range e.Children {
			obj[child.Key] = child.Interface()
		}

		return obj
	case KindArray:
		arr := make([]interface{}, 0, len(e.Children))
		for _, child := range e.Children {
			arr = append(arr, child.Interface())
		}

		return arr
	default:
		return e.Value
	}
}

// Interface rebuilds the plain JSON-like claims object of the tree.
func (t *Tree) Interface() map[string]interface{} {
	obj := make(map[string]interface{}, len(t.Root))
	for _, el := range t.Root {
		obj[el.Key] = el.Interface()
	}

	return obj
}

// Child returns the direct child with the given key, or nil.
func (e *Element) Child(key string) *Element {
	for _, child := range e.Children {
		if child.Key == key {
			return child
		}
	}

	return nil
}

// MarkDisclosable flags the nodes at the given dot-separated paths (e.g.
// "vc.credentialSubject.name") as disclosable. Unknown paths are reported.
func (t *Tree) MarkDisclosable(paths ...string) error {
	for _, path := range paths {
		el := t.lookup(path)
		if el == nil {
			return fmt.Errorf("no claim at path %q", path)
		}

		el.Disclosable = true
	}

	return nil
}

// DisclosableNames returns the keys of all nodes flagged disclosable, in tree
// order.
func (t *Tree) DisclosableNames() []string {
	var names []string

	var walk func(els []*Element)

	walk = func(els []*Element) {
		for _, el := range els {
			if el.Disclosable {
				names = append(names, el.Key)
			}

			walk(el.Children)
		}
	}

	walk(t.Root)

	return names
}

func (t *Tree) lookup(path string) *Element {
	segments := strings.Split(path, ".")

	var current *Element

	children := t.Root

	for _, segment := range segments {
		current = nil

		for _, child := range children {
			if child.Key == segment {
				current = child
				break
			}
		}

		if current == nil {
			return nil
		}

		children = current.Children
	}

	return current
}
