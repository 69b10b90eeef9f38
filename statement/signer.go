package statement

import (
	"github.com/vessel-net/vessel"
)

// Signer is the capability an actor needs to produce attestations.
// Implementations receive the canonical bytes, never the statement
// struct, so they cannot alter what is being attested.
type Signer interface {
	Sign(canonicalBytes []byte) ([]byte, error)
}

// WalletSigner signs with a local secp256k1 private key.
type WalletSigner struct {
	privatekey string
	address    string
}

func NewWalletSigner(privatekey string) (*WalletSigner, error) {
	addr, err := vessel.PrivKeyToAddr(privatekey)
	if err != nil {
		return nil, err
	}
	return &WalletSigner{privatekey: privatekey, address: addr}, nil
}

func (w *WalletSigner) Sign(canonicalBytes []byte) ([]byte, error) {
	return vessel.SignBytes(canonicalBytes, w.privatekey)
}

func (w *WalletSigner) Address() string {
	return w.address
}

// Sign canonicalizes a statement and signs it with the given signer.
func Sign(s Statement, signer Signer) ([]byte, error) {
	b, err := s.Canonical()
	if err != nil {
		return nil, err
	}
	return signer.Sign(b)
}
