package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestReceiptJSONRoundTrip(t *testing.T) {
	original := Receipt{
		Kind:      KindSwap,
		Caller:    "0x1111111111111111111111111111111111111111",
		Custody:   "0x2222222222222222222222222222222222222222",
		Pool:      "0x3333333333333333333333333333333333333333",
		TokenIn:   "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		TokenOut:  "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		AmountIn:  "2000000000000000000",
		AmountOut: "1425507577923934801",
		Recipient: "0x1111111111111111111111111111111111111111",
		Timestamp: "2024-01-01T00:00:00Z",
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Receipt
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}

func TestReceiptOmitsEmptyFields(t *testing.T) {
	b, err := json.Marshal(Receipt{Kind: KindWithdrawETH, Caller: "0x1", Custody: "0x2", Timestamp: "t"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"pool", "token_in", "token_out", "amount_in", "amount_out"} {
		if _, ok := decoded[key]; ok {
			t.Fatalf("%s should be omitted", key)
		}
	}
}
