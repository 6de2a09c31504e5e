package domain

import (
	"regexp"
	"strings"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// NormalizeAddress validates an EVM address and canonicalizes it to
// lowercase. Malformed addresses are rejected before any computation
// or collaborator call happens.
func NormalizeAddress(addr string) (string, error) {
	if !addressPattern.MatchString(addr) {
		return "", &ValidationError{Field: "address", Reason: "must match ^0x[0-9a-fA-F]{40}$"}
	}
	return strings.ToLower(addr), nil
}

// ValidAddress reports whether addr is a well-formed EVM address.
func ValidAddress(addr string) bool {
	return addressPattern.MatchString(addr)
}
