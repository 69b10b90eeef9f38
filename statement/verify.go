package statement

import (
	"fmt"

	"github.com/vessel-net/vessel"
)

// ErrVerificationFailed is returned for every verification failure.
// Callers that surface it must not reveal which check failed.
var ErrVerificationFailed = fmt.Errorf("statement verification failed")

// Verify recomputes the canonical encoding of s, recovers the signer
// address from signature, and compares it case-insensitively against
// expectedSigner. It fails closed: malformed signatures, recovery
// errors, and mismatches all yield ErrVerificationFailed.
//
// Context binding is the caller's job: a CommentSignature must be
// rebuilt from the comment's actual parent publication and hosting node
// before calling Verify, so a signature valid for one comment can never
// be replayed on another.
func Verify(s Statement, signature []byte, expectedSigner string) error {
	if len(signature) == 0 || expectedSigner == "" {
		return ErrVerificationFailed
	}
	b, err := s.Canonical()
	if err != nil {
		return ErrVerificationFailed
	}
	if err := vessel.VerifySignature(b, signature, expectedSigner); err != nil {
		return ErrVerificationFailed
	}
	return nil
}
