/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openwallet-foundation/walletcore/pkg/doc/jwt"
	"github.com/openwallet-foundation/walletcore/pkg/doc/sdjwt"
)

// Parser errors.
var (
	// ErrUnsupportedFormat means no known parser accepts the payload.
	ErrUnsupportedFormat = errors.New("unsupported credential format")
	// ErrAmbiguousFormat means more than one sniff rule matched and no hint
	// settled the tie.
	ErrAmbiguousFormat = errors.New("ambiguous credential format")
	// ErrRestorationFailed means the recovery identifier matches no format tag.
	ErrRestorationFailed = errors.New("credential restoration failed")
)

// Media-type hints accepted by Parse. A hint takes priority over structural
// sniffing.
const (
	HintJWT       = "prism/jwt"
	HintSDJWT     = "vc+sd-jwt"
	HintAnonCreds = "anoncreds/credential@v1.0"
)

var hintToFormat = map[string]Format{
	HintJWT:       FormatJWT,
	HintSDJWT:     FormatSDJWT,
	HintAnonCreds: FormatAnonCreds,
}

// Parse classifies incoming bytes into a credential variant. Explicit hints
// win; otherwise structural sniffing applies and the first match wins. A
// payload matching several sniff rules without a hint fails with
// ErrAmbiguousFormat.
func Parse(data []byte, hints ...string) (Credential, error) {
	for _, hint := range hints {
		if format, ok := hintToFormat[hint]; ok {
			return parseAs(format, data)
		}
	}

	matches := sniff(data)

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: no sniff rule accepts payload", ErrUnsupportedFormat)
	case 1:
		return parseAs(matches[0], data)
	default:
		return nil, fmt.Errorf("%w: payload matches %d formats and no hint given", ErrAmbiguousFormat, len(matches))
	}
}

// Restore rebuilds a previously stored credential from its recovery
// identifier and stored bytes.
func Restore(recoveryID string, data []byte) (Credential, error) {
	switch Format(recoveryID) {
	case FormatJWT, FormatSDJWT, FormatAnonCreds:
		cred, err := parseAs(Format(recoveryID), data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrRestorationFailed, err)
		}

		return cred, nil
	default:
		return nil, fmt.Errorf("%w: unknown recovery id %q", ErrRestorationFailed, recoveryID)
	}
}

func parseAs(format Format, data []byte) (Credential, error) {
	switch format {
	case FormatJWT:
		return ParseJWTCredential(strings.TrimSpace(string(data)))
	case FormatSDJWT:
		return ParseSDJWTCredential(strings.TrimSpace(string(data)))
	case FormatAnonCreds:
		return ParseZKPCredential(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// sniff returns every format whose structural rule accepts the payload:
// three dot-separated base64url segments is JWT-family, tilde-delimited
// segments is SD-JWT, a JSON object with schema_id and cred_def_id is the
// ZKP stack.
func sniff(data []byte) []Format {
	var matches []Format

	payload := strings.TrimSpace(string(data))

	if strings.Contains(payload, sdjwt.CombinedFormatSeparator) {
		combined := sdjwt.ParseCombinedFormatForIssuance(payload)
		if jwt.IsCompactJWS(combined.SDJWT) {
			matches = append(matches, FormatSDJWT)
		}
	} else if jwt.IsCompactJWS(payload) {
		matches = append(matches, FormatJWT)
	}

	var obj map[string]interface{}

	if err := json.Unmarshal(data, &obj); err == nil {
		_, hasSchema := obj["schema_id"]
		_, hasCredDef := obj["cred_def_id"]

		if hasSchema && hasCredDef {
			matches = append(matches, FormatAnonCreds)
		}
	}

	return matches
}
