package dex

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Decoder defines a log decoder.
type Decoder interface {
	CanDecode(topic0 common.Hash) bool
	Decode(log types.Log) (*DecodedEvent, error)
}

// DecodedEvent is a typed view of one receipt log.
type DecodedEvent struct {
	Name     string
	Address  common.Address
	TxHash   common.Hash
	LogIndex uint
	Decoded  interface{}
}

// DecodeReceipt decodes every log the decoder understands and skips the rest.
func DecodeReceipt(d Decoder, receipt *types.Receipt) ([]*DecodedEvent, error) {
	if receipt == nil {
		return nil, nil
	}
	var out []*DecodedEvent
	for _, log := range receipt.Logs {
		if log == nil || len(log.Topics) == 0 || !d.CanDecode(log.Topics[0]) {
			continue
		}
		event, err := d.Decode(*log)
		if err != nil {
			return out, err
		}
		out = append(out, event)
	}
	return out, nil
}
