/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package claims

import (
	"fmt"
	"strconv"

	"github.com/openwallet-foundation/walletcore/pkg/doc/sdjwt"
)

// SDPayload is the selective-disclosure projection of a claim tree: plain
// claims plus digest placeholders on one side, the matching salted
// disclosures on the other.
type SDPayload struct {
	Claims      map[string]interface{}
	Disclosures []string
}

// ToDisclosurePayload walks the tree and converts every disclosable node into
// a salted disclosure entry plus a digest placeholder: object properties go
// into the parent's _sd array, array elements become in-place {"...": digest}
// objects. Disclosure is coarse at the marked node: a disclosable object or
// array is disclosed wholesale and its descendants' own flags are ignored.
// Non-disclosable nodes are emitted as plain claims, with the walk descending
// through objects and arrays alike.
func ToDisclosurePayload(t *Tree) (*SDPayload, error) {
	payload := &SDPayload{}

	claims, err := disclosureWalk(t.Root, payload)
	if err != nil {
		return nil, err
	}

	claims[sdjwt.SDAlgorithmKey] = "sha-256"
	payload.Claims = claims

	return payload, nil
}

func disclosureWalk(elements []*Element, payload *SDPayload) (map[string]interface{}, error) {
	claims := map[string]interface{}{}

	var digests []interface{}

	for _, el := range elements {
		if el.Disclosable {
			disclosure, err := sdjwt.NewDisclosure(el.Key, el.Interface())
			if err != nil {
				return nil, fmt.Errorf("create disclosure for %q: %w", el.Key, err)
			}

			digest, err := sdjwt.GetHash(sdjwt.DefaultHash, disclosure)
			if err != nil {
				return nil, fmt.Errorf("hash disclosure for %q: %w", el.Key, err)
			}

			payload.Disclosures = append(payload.Disclosures, disclosure)
			digests = append(digests, digest)

			continue
		}

		value, err := claimValue(el, payload)
		if err != nil {
			return nil, err
		}

		claims[el.Key] = value
	}

	if len(digests) > 0 {
		claims[sdjwt.SDKey] = digests
	}

	return claims, nil
}

func claimValue(el *Element, payload *SDPayload) (interface{}, error) {
	switch el.Kind {
	case KindObject:
		return disclosureWalk(el.Children, payload)
	case KindArray:
		return arrayWalk(el.Children, payload)
	default:
		return el.Value, nil
	}
}

// arrayWalk converts disclosable array elements into [salt, value] disclosures
// held in place by {"...": digest} placeholder objects, so array order and
// length stay visible while the element value does not.
func arrayWalk(children []*Element, payload *SDPayload) ([]interface{}, error) {
	entries := make([]interface{}, 0, len(children))

	for _, child := range children {
		if child.Disclosable {
			disclosure, err := sdjwt.NewArrayElementDisclosure(child.Interface())
			if err != nil {
				return nil, fmt.Errorf("create array element disclosure: %w", err)
			}

			digest, err := sdjwt.GetHash(sdjwt.DefaultHash, disclosure)
			if err != nil {
				return nil, fmt.Errorf("hash array element disclosure: %w", err)
			}

			payload.Disclosures = append(payload.Disclosures, disclosure)
			entries = append(entries, map[string]interface{}{sdjwt.ArrayElementKey: digest})

			continue
		}

		value, err := claimValue(child, payload)
		if err != nil {
			return nil, err
		}

		entries = append(entries, value)
	}

	return entries, nil
}

// FromDisclosurePayload reconstructs a claim tree from an SD payload. Plain
// claims become non-disclosable nodes; digest placeholders matched by a
// supplied disclosure become disclosable nodes carrying the disclosed value;
// unmatched digests stay opaque and produce no node.
func FromDisclosurePayload(payload *SDPayload) (*Tree, error) {
	digestToClaim := map[string]*sdjwt.DisclosureClaim{}

	for _, disclosure := range payload.Disclosures {
		decoded, err := sdjwt.GetDisclosureClaims([]string{disclosure})
		if err != nil {
			return nil, err
		}

		digest, err := sdjwt.GetHash(sdjwt.DefaultHash, disclosure)
		if err != nil {
			return nil, err
		}

		digestToClaim[digest] = decoded[0]
	}

	root, err := restoreWalk(payload.Claims, digestToClaim)
	if err != nil {
		return nil, err
	}

	return &Tree{Root: root}, nil
}

func restoreWalk(claims map[string]interface{},
	digestToClaim map[string]*sdjwt.DisclosureClaim) ([]*Element, error) {
	tree, err := Build(claims)
	if err != nil {
		return nil, err
	}

	var elements []*Element

	for _, el := range tree.Root {
		switch el.Key {
		case sdjwt.SDAlgorithmKey:
			continue
		case sdjwt.SDKey:
			for _, digestEl := range el.Children {
				digest, ok := digestEl.Value.(string)
				if !ok {
					return nil, fmt.Errorf("disclosure digest is not a string: %v", digestEl.Value)
				}

				claim, disclosed := digestToClaim[digest]
				if !disclosed {
					// undisclosed entries stay opaque
					continue
				}

				restored, buildErr := buildElement(claim.Name, claim.Value)
				if buildErr != nil {
					return nil, buildErr
				}

				restored.Disclosable = true
				elements = append(elements, restored)
			}
		default:
			restored, restoreErr := restoreValue(el, digestToClaim)
			if restoreErr != nil {
				return nil, restoreErr
			}

			elements = append(elements, restored)
		}
	}

	return elements, nil
}

func restoreValue(el *Element, digestToClaim map[string]*sdjwt.DisclosureClaim) (*Element, error) {
	switch el.Kind {
	case KindObject:
		nested, err := restoreWalk(el.Interface().(map[string]interface{}), digestToClaim)
		if err != nil {
			return nil, err
		}

		return &Element{Key: el.Key, Kind: KindObject, Children: nested}, nil
	case KindArray:
		return restoreArray(el, digestToClaim)
	default:
		return el, nil
	}
}

func restoreArray(el *Element, digestToClaim map[string]*sdjwt.DisclosureClaim) (*Element, error) {
	restored := &Element{Key: el.Key, Kind: KindArray}

	for _, child := range el.Children {
		if digest, ok := arrayDigest(child); ok {
			claim, disclosed := digestToClaim[digest]
			if !disclosed {
				// undisclosed entries stay opaque
				continue
			}

			entry, err := buildElement("", claim.Value)
			if err != nil {
				return nil, err
			}

			entry.Disclosable = true
			restored.Children = append(restored.Children, entry)

			continue
		}

		entry, err := restoreValue(child, digestToClaim)
		if err != nil {
			return nil, err
		}

		restored.Children = append(restored.Children, entry)
	}

	// keys must be contiguous indexes after opaque entries are dropped
	for i, child := range restored.Children {
		child.Key = strconv.Itoa(i)
	}

	return restored, nil
}

func arrayDigest(el *Element) (string, bool) {
	if el.Kind != KindObject || len(el.Children) != 1 {
		return "", false
	}

	child := el.Children[0]
	if child.Key != sdjwt.ArrayElementKey || child.Kind != KindLeaf {
		return "", false
	}

	digest, ok := child.Value.(string)

	return digest, ok
}
