package amm

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestSortTokens(t *testing.T) {
	a := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	b := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	token0, token1, err := SortTokens(a, b)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	if token0 != b || token1 != a {
		t.Fatalf("unexpected order: %s %s", token0.Hex(), token1.Hex())
	}

	again0, again1, _ := SortTokens(b, a)
	if again0 != token0 || again1 != token1 {
		t.Fatalf("order depends on argument order")
	}
}

func TestSortTokensErrors(t *testing.T) {
	a := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	if _, _, err := SortTokens(a, a); err != ErrIdenticalTokens {
		t.Fatalf("expected ErrIdenticalTokens, got %v", err)
	}
	if _, _, err := SortTokens(a, common.Address{}); err != ErrZeroAddress {
		t.Fatalf("expected ErrZeroAddress, got %v", err)
	}
}

func TestOutAmounts(t *testing.T) {
	token0 := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	token1 := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	a0, a1 := OutAmounts(token0, token1, big.NewInt(5))
	if a0.Sign() != 0 || a1.Int64() != 5 {
		t.Fatalf("token1 out: got %s/%s", a0, a1)
	}
	a0, a1 = OutAmounts(token0, token0, big.NewInt(7))
	if a0.Int64() != 7 || a1.Sign() != 0 {
		t.Fatalf("token0 out: got %s/%s", a0, a1)
	}
}
