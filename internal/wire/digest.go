package wire

import "crypto/sha256"

// VerifyResult reports the outcome of a deferred verification (spec.md
// §7 "Verification deferred"): the matcher never itself checks a
// signature, it only records whether the external collaborator did.
type VerifyResult int

const (
	VerifyUnknown VerifyResult = iota
	VerifyOK
	VerifyFailed
	VerifyNeedsKey
)

// Verifier is the external cryptographic collaborator spec.md §1 treats
// as a black box: it computes the 32-byte content digest used to
// synthesize the explicit digest name component, and (out of this
// package's scope to implement) checks signatures.
type Verifier interface {
	// Digest returns the 32-byte content digest of an encoded
	// ContentObject.
	Digest(raw []byte) [32]byte
	// Verify checks the signature on an encoded ContentObject.
	Verify(raw []byte) VerifyResult
}

// Sha256Verifier is the default Verifier: it computes real digests but
// defers all signature checking (always reports VerifyNeedsKey), since
// signing/verification is explicitly out of scope (spec.md §1) and a
// real deployment would plug in the keystore-backed collaborator here.
type Sha256Verifier struct{}

// Digest returns sha256(raw).
func (Sha256Verifier) Digest(raw []byte) [32]byte {
	return sha256.Sum256(raw)
}

// Verify always defers: this stand-in never holds key material.
func (Sha256Verifier) Verify([]byte) VerifyResult {
	return VerifyNeedsKey
}
