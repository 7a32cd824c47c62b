package dex

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"uniExchange/internal/model"
)

// PairDecoder decodes Uniswap V2 pair Swap and Sync events.
type PairDecoder struct {
	pairABI     abi.ABI
	topicToName map[common.Hash]string
}

// NewPairDecoder builds a V2 pair decoder.
func NewPairDecoder() (*PairDecoder, error) {
	pairABI, err := V2PairABI()
	if err != nil {
		return nil, err
	}
	return &PairDecoder{
		pairABI: pairABI,
		topicToName: map[common.Hash]string{
			pairABI.Events["Swap"].ID: "Swap",
			pairABI.Events["Sync"].ID: "Sync",
		},
	}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *PairDecoder) CanDecode(topic0 common.Hash) bool {
	_, ok := d.topicToName[topic0]
	return ok
}

// Decode converts a pair log into a DecodedEvent.
func (d *PairDecoder) Decode(log types.Log) (*DecodedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[log.Topics[0]]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0].Hex())
	}

	var (
		decoded interface{}
		err     error
	)
	switch name {
	case "Swap":
		decoded, err = d.decodeSwap(log)
	case "Sync":
		decoded, err = d.decodeSync(log)
	}
	if err != nil {
		return nil, err
	}
	return &DecodedEvent{
		Name:     name,
		Address:  log.Address,
		TxHash:   log.TxHash,
		LogIndex: log.Index,
		Decoded:  decoded,
	}, nil
}

func (d *PairDecoder) decodeSwap(log types.Log) (model.PairSwapEventData, error) {
	event := d.pairABI.Events["Swap"]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.PairSwapEventData{}, err
	}

	var indexed struct {
		Sender common.Address
		To     common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.PairSwapEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return model.PairSwapEventData{}, fmt.Errorf("unpack Swap: %w", err)
	}
	if len(values) != 4 {
		return model.PairSwapEventData{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}
	amounts := make([]string, len(values))
	for i, v := range values {
		n, err := asBigInt(v)
		if err != nil {
			return model.PairSwapEventData{}, err
		}
		amounts[i] = n.String()
	}

	return model.PairSwapEventData{
		Pool:       log.Address.Hex(),
		Sender:     indexed.Sender.Hex(),
		To:         indexed.To.Hex(),
		Amount0In:  amounts[0],
		Amount1In:  amounts[1],
		Amount0Out: amounts[2],
		Amount1Out: amounts[3],
	}, nil
}

func (d *PairDecoder) decodeSync(log types.Log) (model.PairSyncEventData, error) {
	event := d.pairABI.Events["Sync"]
	if len(log.Topics) != 1 {
		return model.PairSyncEventData{}, fmt.Errorf("expected 1 topic, got %d", len(log.Topics))
	}
	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return model.PairSyncEventData{}, fmt.Errorf("unpack Sync: %w", err)
	}
	if len(values) != 2 {
		return model.PairSyncEventData{}, fmt.Errorf("unexpected sync values: %d", len(values))
	}
	reserve0, err := asBigInt(values[0])
	if err != nil {
		return model.PairSyncEventData{}, err
	}
	reserve1, err := asBigInt(values[1])
	if err != nil {
		return model.PairSyncEventData{}, err
	}
	return model.PairSyncEventData{
		Pool:     log.Address.Hex(),
		Reserve0: reserve0.String(),
		Reserve1: reserve1.String(),
	}, nil
}

func parseIndexedTopics(event abi.Event, topics []common.Hash) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	return topics[1:], nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
