package vessel

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

const contentHashPrefix = "vh"

// HashContent computes the content-address of a blob. Identical bytes
// always produce the same hash on every node, which is what makes
// cross-node deduplication and reference-by-hash work.
func HashContent(b []byte) string {
	sum := sha3.Sum256(b)
	return contentHashPrefix + hex.EncodeToString(sum[:])
}

// IsContentHash reports whether s looks like a content hash.
func IsContentHash(s string) bool {
	if len(s) != len(contentHashPrefix)+64 || !strings.HasPrefix(s, contentHashPrefix) {
		return false
	}
	_, err := hex.DecodeString(s[len(contentHashPrefix):])
	return err == nil
}

// GetHash returns the keccak256 digest used for statement signing.
func GetHash(b []byte) []byte {
	return crypto.Keccak256(b)
}

// SignBytes signs the keccak256 digest of b with a hex private key and
// returns a 65-byte recoverable signature.
func SignBytes(b []byte, privatekey string) ([]byte, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privatekey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %v", err)
	}
	return crypto.Sign(GetHash(b), key)
}

// RecoverAddress recovers the signer address from a message and its
// signature. Both V=0/1 and V=27/28 encodings are accepted.
func RecoverAddress(message, signature []byte) (string, error) {
	if len(signature) != 65 {
		return "", fmt.Errorf("invalid signature length: %d", len(signature))
	}
	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pubkey, err := crypto.SigToPub(GetHash(message), sig)
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(*pubkey).Hex(), nil
}

// VerifySignature checks that signature over message was produced by
// address. It fails closed: any decode or recovery error is a plain
// verification failure.
func VerifySignature(message, signature []byte, address string) error {
	recovered, err := RecoverAddress(message, signature)
	if err != nil {
		return err
	}
	if !AddressesEqual(recovered, address) {
		return fmt.Errorf("signer mismatch: recovered %s", recovered)
	}
	return nil
}

// PrivKeyToAddr derives the account address from a hex private key.
func PrivKeyToAddr(privatekey string) (string, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privatekey, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid private key: %v", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}
