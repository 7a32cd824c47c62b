package dex

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"uniExchange/internal/model"
)

func TestPairDecoderSwap(t *testing.T) {
	pairABI, err := V2PairABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewPairDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	to := common.HexToAddress("0x3333333333333333333333333333333333333333")

	data, err := pairABI.Events["Swap"].Inputs.NonIndexed().Pack(
		big.NewInt(5000),
		big.NewInt(0),
		big.NewInt(0),
		big.NewInt(4985),
	)
	if err != nil {
		t.Fatalf("pack swap: %v", err)
	}

	log := buildLog(pool, pairABI.Events["Swap"].ID, data, topicFromAddress(sender), topicFromAddress(to))
	if !decoder.CanDecode(log.Topics[0]) {
		t.Fatalf("swap topic not recognised")
	}
	event, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}
	if event.Name != "Swap" || event.LogIndex != 1 {
		t.Fatalf("event mismatch: %+v", event)
	}

	swap, ok := event.Decoded.(model.PairSwapEventData)
	if !ok {
		t.Fatalf("decoded type mismatch")
	}
	if swap.Amount0In != "5000" || swap.Amount1Out != "4985" || swap.Amount1In != "0" {
		t.Fatalf("amounts mismatch: %+v", swap)
	}
	if swap.Sender != sender.Hex() || swap.To != to.Hex() || swap.Pool != pool.Hex() {
		t.Fatalf("address mismatch: %+v", swap)
	}
}

func TestPairDecoderSync(t *testing.T) {
	pairABI, err := V2PairABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewPairDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := common.HexToAddress("0x9999999999999999999999999999999999999999")
	data, err := pairABI.Events["Sync"].Inputs.NonIndexed().Pack(big.NewInt(1_000_000), big.NewInt(2_000_000))
	if err != nil {
		t.Fatalf("pack sync: %v", err)
	}

	event, err := decoder.Decode(buildLog(pool, pairABI.Events["Sync"].ID, data))
	if err != nil {
		t.Fatalf("decode sync: %v", err)
	}
	sync, ok := event.Decoded.(model.PairSyncEventData)
	if !ok {
		t.Fatalf("decoded type mismatch")
	}
	if sync.Reserve0 != "1000000" || sync.Reserve1 != "2000000" {
		t.Fatalf("reserves mismatch: %+v", sync)
	}
}

func TestDecodeReceiptSkipsForeignLogs(t *testing.T) {
	pairABI, err := V2PairABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewPairDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := common.HexToAddress("0x9999999999999999999999999999999999999999")
	data, err := pairABI.Events["Sync"].Inputs.NonIndexed().Pack(big.NewInt(7), big.NewInt(8))
	if err != nil {
		t.Fatalf("pack sync: %v", err)
	}
	transfer := buildLog(pool, common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"), nil)
	syncLog := buildLog(pool, pairABI.Events["Sync"].ID, data)

	events, err := DecodeReceipt(decoder, &types.Receipt{Logs: []*types.Log{&transfer, &syncLog}})
	if err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if len(events) != 1 || events[0].Name != "Sync" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestPairDecoderRejectsBadTopics(t *testing.T) {
	pairABI, err := V2PairABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewPairDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	if _, err := decoder.Decode(buildLog(pool, pairABI.Events["Swap"].ID, nil)); err == nil {
		t.Fatalf("expected error for swap without indexed topics")
	}
	if _, err := decoder.Decode(types.Log{Address: pool}); err == nil {
		t.Fatalf("expected error for log without topics")
	}
}

func buildLog(pool common.Address, topic0 common.Hash, data []byte, indexed ...common.Hash) types.Log {
	topics := append([]common.Hash{topic0}, indexed...)
	return types.Log{
		Address:     pool,
		Topics:      topics,
		Data:        data,
		BlockNumber: 12345,
		TxHash:      common.HexToHash("0xdef"),
		Index:       1,
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
