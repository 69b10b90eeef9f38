package vessel

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IsAddress reports whether s is a valid account address.
func IsAddress(s string) bool {
	return common.IsHexAddress(s)
}

// AddressesEqual compares two account addresses case-insensitively.
// Checksummed and lowercased renderings of the same address are equal.
func AddressesEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

// NormalizeAddress returns the checksummed rendering of an address,
// or the input unchanged if it is not an address.
func NormalizeAddress(s string) string {
	if !common.IsHexAddress(s) {
		return s
	}
	return common.HexToAddress(s).Hex()
}
