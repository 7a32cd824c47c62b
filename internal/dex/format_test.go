package dex

import (
	"math/big"
	"testing"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		value    *big.Int
		decimals uint8
		want     string
	}{
		{nil, 18, "0"},
		{big.NewInt(0), 18, "0"},
		{big.NewInt(1_500_000), 6, "1.5"},
		{big.NewInt(42), 0, "42"},
		{new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil), 18, "1"},
		{big.NewInt(1), 18, "0.000000000000000001"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.value, tc.decimals); got != tc.want {
			t.Fatalf("FormatAmount(%v, %d) = %s, want %s", tc.value, tc.decimals, got, tc.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount("1.5", 18)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.String() != "1500000000000000000" {
		t.Fatalf("unexpected amount: %s", got)
	}

	if _, err := ParseAmount("0.0000001", 6); err == nil {
		t.Fatalf("expected error for excess precision")
	}
	if _, err := ParseAmount("-1", 18); err == nil {
		t.Fatalf("expected error for negative amount")
	}
	if _, err := ParseAmount("abc", 18); err == nil {
		t.Fatalf("expected error for garbage")
	}
}

func TestPriceImpact(t *testing.T) {
	reserve := big.NewInt(1_000_000)
	// 1000 in at a 1:1 spot returns 996 after the fee and curve.
	impact := PriceImpact(big.NewInt(1000), big.NewInt(996), reserve, reserve)
	if impact.String() != "0.4" {
		t.Fatalf("unexpected impact: %s", impact)
	}
	if !PriceImpact(big.NewInt(0), big.NewInt(0), reserve, reserve).IsZero() {
		t.Fatalf("zero input should have zero impact")
	}
}
