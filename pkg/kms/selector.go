/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package kms

import (
	"fmt"
	"strings"
)

// SelectSigningKey picks the signing key for a presentation deterministically:
// the first exportable key whose curve matches and whose id is not the
// reserved master key. Curve comparison is case-insensitive on the JWA curve
// name ("Ed25519", "P-256"). An empty curve matches any key.
func SelectSigningKey(keys []*StoredKey, curve string) (*StoredKey, error) {
	for _, key := range keys {
		if key == nil || !key.Exportable || key.ID == MasterKeyID {
			continue
		}

		if curve != "" && !strings.EqualFold(key.Curve, curve) {
			continue
		}

		return key, nil
	}

	return nil, fmt.Errorf("%w: no exportable key for curve %q", ErrRequiresExportableKey, curve)
}
