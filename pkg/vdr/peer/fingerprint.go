/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package peer

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

const (
	// source: https://github.com/multiformats/multicodec/blob/master/table.csv.
	ed25519pub = 0xed // Ed25519 public key in multicodec table
)

// KeyFingerprint generates a multicodec fingerprint for a raw public key,
// the method-specific id of a numalgo-0 peer DID.
func KeyFingerprint(code uint64, pubKeyValue []byte) string {
	multicodecValue := multicodec(code)
	mcLength := len(multicodecValue)
	buf := make([]uint8, mcLength+len(pubKeyValue))
	copy(buf, multicodecValue)
	copy(buf[mcLength:], pubKeyValue)

	return fmt.Sprintf("z%s", base58.Encode(buf))
}

// PubKeyFromFingerprint extracts the raw public key from a peer DID
// fingerprint.
func PubKeyFromFingerprint(fingerprint string) ([]byte, error) {
	// MULTIBASE(base58-btc, MULTICODEC(public-key-type, raw-public-key-bytes))
	if len(fingerprint) < 2 || fingerprint[0] != 'z' {
		return nil, fmt.Errorf("fingerprint %q is not base58-btc multibase", fingerprint)
	}

	mc := base58.Decode(fingerprint[1:]) // skip leading "z"
	if len(mc) < 3 || !bytes.Equal(multicodec(ed25519pub), mc[:2]) {
		return nil, fmt.Errorf("pubKeyFromFingerprint: not supported public key (multicodec code: %#x)", mc[0])
	}

	return mc[2:], nil
}

func multicodec(code uint64) []byte {
	buf := make([]byte, 2)
	binary.PutUvarint(buf, code)

	return buf
}
