/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package walletcore provides the credential and presentation-exchange engine
// of a decentralized-identity wallet.
//
// Packages for end developer usage
//
// pkg/wallet: The main entry point. Parses issuer credentials, builds signed
// presentations for verifier proof requests and verifies received
// presentations.
// Reference: https://pkg.go.dev/github.com/openwallet-foundation/walletcore/pkg/wallet
//
// pkg/vdr: DID resolution chain with per-method resolvers and ordered
// fallback.
//
// pkg/presexch: Presentation Exchange definitions, claim path matching,
// presentation building and verification.
//
// Basic workflow
//
//	1) Parse or restore a credential with wallet.ParseCredential/RestoreCredential.
//	2) On a proof request, call wallet.ProcessCredentialRequest to produce a
//	   signed presentation.
//	3) On the verifier side, call wallet.VerifyPresentation against the
//	   presentation definition.
package walletcore
