package domain

import (
	"fmt"
	"math/big"
	"sort"
)

// Amount is a token amount in integer minor units, carried as a decimal
// string so values beyond int64 range (wei) survive serialization intact.
// Comparisons go through big.Int, never floating point.
type Amount string

// Zero is the canonical zero amount.
const Zero Amount = "0"

// Int returns the amount as a big.Int. Malformed or empty amounts parse
// as zero.
func (a Amount) Int() *big.Int {
	if a == "" {
		return new(big.Int)
	}
	v, ok := new(big.Int).SetString(string(a), 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

// Cmp compares two amounts: -1 if a < b, 0 if equal, +1 if a > b.
func (a Amount) Cmp(b Amount) int {
	return a.Int().Cmp(b.Int())
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount(new(big.Int).Add(a.Int(), b.Int()).String())
}

// IsZero reports whether the amount is zero or unset.
func (a Amount) IsZero() bool {
	return a == "" || a.Int().Sign() == 0
}

// Valid reports whether the amount is a well-formed non-negative decimal.
func (a Amount) Valid() bool {
	if a == "" {
		return false
	}
	v, ok := new(big.Int).SetString(string(a), 10)
	return ok && v.Sign() >= 0
}

// ParseAmount validates and canonicalizes a decimal amount string.
func ParseAmount(s string) (Amount, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return Zero, fmt.Errorf("invalid amount %q", s)
	}
	return Amount(v.String()), nil
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
