package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"uniExchange/internal/model"
)

func TestNullable(t *testing.T) {
	if nullable("") != nil {
		t.Fatalf("empty string should map to NULL")
	}
	if v := nullable("42"); v == nil || *v != "42" {
		t.Fatalf("unexpected value: %v", v)
	}
}

func TestNewStoreRequiresDSN(t *testing.T) {
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

// TestStoreRoundTrip runs against a real database when EXCHANGE_TEST_PG_DSN is set.
func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("EXCHANGE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("EXCHANGE_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	want := model.Receipt{
		Kind:      model.KindSwap,
		Caller:    "0x1111111111111111111111111111111111111111",
		Custody:   "0x2222222222222222222222222222222222222222",
		TokenIn:   "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		TokenOut:  "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		AmountIn:  "2000000000000000000",
		AmountOut: "1425507577923934801",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := store.PutReceipts(ctx, []model.Receipt{want}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.RecentReceipts(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].AmountOut != want.AmountOut || got[0].Kind != want.Kind {
		t.Fatalf("unexpected receipts: %+v", got)
	}
}
