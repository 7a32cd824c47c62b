package storage

import (
	"context"
	"errors"
	"testing"

	"uniExchange/internal/model"
)

type countingSink struct {
	n   int
	err error
}

func (c *countingSink) PutReceipts(_ context.Context, receipts []model.Receipt) error {
	c.n += len(receipts)
	return c.err
}

func TestMultiFansOutAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &countingSink{}
	bad := &countingSink{err: boom}

	err := Multi{ok, bad, Discard{}}.PutReceipts(context.Background(), []model.Receipt{{Kind: model.KindSwap}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if ok.n != 1 || bad.n != 1 {
		t.Fatalf("every sink should see the batch: ok=%d bad=%d", ok.n, bad.n)
	}
	if err := (Multi{ok}).PutReceipts(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
