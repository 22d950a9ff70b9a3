package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAddress is returned for strings that are not 20-byte hex addresses.
var ErrInvalidAddress = errors.New("invalid address")

// ChecksumAddress returns the EIP-55 mixed-case form of a hex address.
// Ledger keys and response payloads always carry this form.
func ChecksumAddress(raw string) (string, error) {
	addr, err := ParseAddress(raw)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

// ParseAddress validates raw and converts it to a common.Address.
func ParseAddress(raw string) (common.Address, error) {
	s := strings.TrimSpace(raw)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, raw)
	}
	return common.HexToAddress(s), nil
}

// SameAddress compares two hex addresses after checksum normalisation.
// Either side failing to parse yields false.
func SameAddress(a, b string) bool {
	ca, err := ChecksumAddress(a)
	if err != nil {
		return false
	}
	cb, err := ChecksumAddress(b)
	if err != nil {
		return false
	}
	return ca == cb
}
