package storage

import (
	"context"
	"errors"

	"uniExchange/internal/model"
)

// Storage defines a sink for exchange receipts.
type Storage interface {
	PutReceipts(ctx context.Context, receipts []model.Receipt) error
}

// Discard drops every receipt.
type Discard struct{}

func (Discard) PutReceipts(context.Context, []model.Receipt) error { return nil }

// Multi fans receipts out to every sink and joins their errors.
type Multi []Storage

func (m Multi) PutReceipts(ctx context.Context, receipts []model.Receipt) error {
	var errs []error
	for _, s := range m {
		if err := s.PutReceipts(ctx, receipts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
