package simchain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

type blockKey struct {
	token common.Address
	to    common.Address
}

type pairKey struct {
	token0 common.Address
	token1 common.Address
}

type state struct {
	native    map[common.Address]*big.Int
	tokens    map[common.Address]*token
	pairs     map[common.Address]*pair
	pairIndex map[pairKey]common.Address
	blocked   map[blockKey]bool
}

func newState() *state {
	return &state{
		native:    make(map[common.Address]*big.Int),
		tokens:    make(map[common.Address]*token),
		pairs:     make(map[common.Address]*pair),
		pairIndex: make(map[pairKey]common.Address),
		blocked:   make(map[blockKey]bool),
	}
}

func (s *state) clone() *state {
	out := newState()
	out.native = cloneBalances(s.native)
	for addr, t := range s.tokens {
		out.tokens[addr] = t.clone()
	}
	for addr, p := range s.pairs {
		cp := *p
		cp.reserve0 = new(big.Int).Set(p.reserve0)
		cp.reserve1 = new(big.Int).Set(p.reserve1)
		out.pairs[addr] = &cp
	}
	for k, v := range s.pairIndex {
		out.pairIndex[k] = v
	}
	for k, v := range s.blocked {
		out.blocked[k] = v
	}
	return out
}

func cloneBalances(in map[common.Address]*big.Int) map[common.Address]*big.Int {
	out := make(map[common.Address]*big.Int, len(in))
	for k, v := range in {
		out[k] = new(big.Int).Set(v)
	}
	return out
}

func (s *state) nativeOf(addr common.Address) *big.Int {
	if bal, ok := s.native[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

func (s *state) creditNative(addr common.Address, amount *big.Int) {
	s.native[addr] = new(big.Int).Add(s.nativeOf(addr), amount)
}

func (s *state) moveNative(from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	bal := s.nativeOf(from)
	if bal.Cmp(amount) < 0 {
		return revert("insufficient funds for transfer")
	}
	s.native[from] = bal.Sub(bal, amount)
	s.creditNative(to, amount)
	return nil
}

func (s *state) token(addr common.Address) (*token, error) {
	t, ok := s.tokens[addr]
	if !ok {
		return nil, revert("call to non-contract " + addr.Hex())
	}
	return t, nil
}

func (s *state) balanceOf(tokenAddr, holder common.Address) (*big.Int, error) {
	t, err := s.token(tokenAddr)
	if err != nil {
		return nil, err
	}
	return t.balanceOf(holder), nil
}

func (s *state) transfer(tokenAddr, from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	t, err := s.token(tokenAddr)
	if err != nil {
		return err
	}
	if s.blocked[blockKey{token: tokenAddr, to: to}] {
		return ErrReturnedFalse
	}
	if to == (common.Address{}) {
		return revert("ERC20: transfer to the zero address")
	}
	bal := t.balanceOf(from)
	if bal.Cmp(amount) < 0 {
		return revert("ERC20: transfer amount exceeds balance")
	}
	t.balances[from] = bal.Sub(bal, amount)
	t.balances[to] = new(big.Int).Add(t.balanceOf(to), amount)
	return nil
}

func (s *state) transferFrom(tokenAddr, spender, from, to common.Address, amount *big.Int) error {
	t, err := s.token(tokenAddr)
	if err != nil {
		return err
	}
	allowed := t.allowance(from, spender)
	if allowed.Cmp(math.MaxBig256) != 0 {
		if allowed.Cmp(amount) < 0 {
			return revert("ERC20: insufficient allowance")
		}
		t.setAllowance(from, spender, new(big.Int).Sub(allowed, amount))
	}
	return s.transfer(tokenAddr, from, to, amount)
}

type token struct {
	name        string
	symbol      string
	decimals    uint8
	totalSupply *big.Int
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int
}

func newToken(name, symbol string, decimals uint8) *token {
	return &token{
		name:        name,
		symbol:      symbol,
		decimals:    decimals,
		totalSupply: new(big.Int),
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]map[common.Address]*big.Int),
	}
}

func (t *token) clone() *token {
	out := newToken(t.name, t.symbol, t.decimals)
	out.totalSupply = new(big.Int).Set(t.totalSupply)
	out.balances = cloneBalances(t.balances)
	for owner, spenders := range t.allowances {
		out.allowances[owner] = cloneBalances(spenders)
	}
	return out
}

func (t *token) balanceOf(holder common.Address) *big.Int {
	if bal, ok := t.balances[holder]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

func (t *token) allowance(owner, spender common.Address) *big.Int {
	if v, ok := t.allowances[owner][spender]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

func (t *token) setAllowance(owner, spender common.Address, amount *big.Int) {
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]*big.Int)
	}
	t.allowances[owner][spender] = new(big.Int).Set(amount)
}

func (t *token) mint(to common.Address, amount *big.Int) {
	t.totalSupply = new(big.Int).Add(t.totalSupply, amount)
	t.balances[to] = new(big.Int).Add(t.balanceOf(to), amount)
}

func (t *token) burn(from common.Address, amount *big.Int) error {
	bal := t.balanceOf(from)
	if bal.Cmp(amount) < 0 {
		return revert("")
	}
	t.balances[from] = bal.Sub(bal, amount)
	t.totalSupply = new(big.Int).Sub(t.totalSupply, amount)
	return nil
}
