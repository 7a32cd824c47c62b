package storage

import (
	"context"
	"path/filepath"
	"testing"

	"uniExchange/internal/model"
)

func TestJsonlStorageAppendsReceipts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "receipts.jsonl")
	sink := NewJsonlStorage(path)
	ctx := context.Background()

	first := []model.Receipt{
		{Kind: model.KindSwap, Caller: "0x1", Custody: "0x2", AmountIn: "2000000000000000000", AmountOut: "1425507577923934801", Timestamp: "t1"},
	}
	second := []model.Receipt{
		{Kind: model.KindWithdraw, Caller: "0x1", Custody: "0x2", AmountOut: "5", Timestamp: "t2"},
		{Kind: model.KindWithdrawETH, Caller: "0x1", Custody: "0x2", AmountOut: "7", Timestamp: "t3"},
	}
	if err := sink.PutReceipts(ctx, first); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := sink.PutReceipts(ctx, second); err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if err := sink.PutReceipts(ctx, nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}

	got, err := ReadReceipts(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 receipts, got %d", len(got))
	}
	if got[0].AmountOut != "1425507577923934801" || got[2].Kind != model.KindWithdrawETH {
		t.Fatalf("unexpected receipts: %+v", got)
	}
}

func TestJsonlStorageHonoursCancelledContext(t *testing.T) {
	sink := NewJsonlStorage(filepath.Join(t.TempDir(), "receipts.jsonl"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sink.PutReceipts(ctx, []model.Receipt{{Kind: model.KindSwap}})
	if err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
