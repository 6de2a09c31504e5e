package domain

import (
	"strings"
	"testing"
)

func TestNormalizeAddress_Idempotent(t *testing.T) {
	addr := "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0"

	once, err := NormalizeAddress(addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := NormalizeAddress(once)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if once != twice {
		t.Errorf("normalization not idempotent: %q != %q", once, twice)
	}
}

func TestNormalizeAddress_CaseInsensitive(t *testing.T) {
	addr := "0x742d35cc6634c0532925a3b844bc9e7595f0beb0"

	lower, err := NormalizeAddress(addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	upper, err := NormalizeAddress("0x" + strings.ToUpper(addr[2:]))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lower != upper {
		t.Errorf("case variants normalize differently: %q != %q", lower, upper)
	}
}

func TestNormalizeAddress_Rejects(t *testing.T) {
	cases := []string{
		"",
		"invalid-address",
		"0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb",    // 39 hex chars
		"0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb000", // 41 hex chars
		"742d35cc6634c0532925a3b844bc9e7595f0beb000",   // missing 0x
		"0xZZZd35cc6634c0532925a3b844bc9e7595f0beb0",   // non-hex
	}
	for _, c := range cases {
		if _, err := NormalizeAddress(c); err == nil {
			t.Errorf("expected rejection for %q", c)
		} else if !IsValidation(err) {
			t.Errorf("expected ValidationError for %q, got %T", c, err)
		}
	}
}

func TestAmount_Comparisons(t *testing.T) {
	// Values beyond int64 range must compare exactly.
	big1 := Amount("115792089237316195423570985008687907853269984665640564039457")
	big2 := Amount("115792089237316195423570985008687907853269984665640564039458")

	if big1.Cmp(big2) != -1 {
		t.Error("expected big1 < big2")
	}
	if big2.Cmp(big1) != 1 {
		t.Error("expected big2 > big1")
	}
	if big1.Cmp(big1) != 0 {
		t.Error("expected big1 == big1")
	}
	if got := big1.Add(Amount("1")); got != big2 {
		t.Errorf("expected %s, got %s", big2, got)
	}
}

func TestParseAmount(t *testing.T) {
	if _, err := ParseAmount("-5"); err == nil {
		t.Error("expected rejection of negative amount")
	}
	if _, err := ParseAmount("1.5"); err == nil {
		t.Error("expected rejection of fractional amount")
	}
	got, err := ParseAmount("0042")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != Amount("42") {
		t.Errorf("expected canonical form 42, got %s", got)
	}
}
