// Package memtoken is an in-memory fungible token implementing asset.Asset.
// It keeps balances and allowances in maps and is safe for concurrent use.
package memtoken

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/tokensale/asset"
)

// Compile-time interface check.
var _ asset.Asset = (*Token)(nil)

// Token is an in-memory token with mint, allowance and transfer semantics.
type Token struct {
	mu          sync.RWMutex
	address     common.Address
	symbol      string
	decimals    uint8
	supply      *uint256.Int
	balances    map[common.Address]*uint256.Int
	allowances  map[common.Address]map[common.Address]*uint256.Int
	failNext    error
	transferLog []Transfer
}

// Transfer records one successful movement of tokens.
type Transfer struct {
	From   common.Address
	To     common.Address
	Amount *uint256.Int
}

// New creates an empty token.
func New(address common.Address, symbol string, decimals uint8) *Token {
	return &Token{
		address:    address,
		symbol:     symbol,
		decimals:   decimals,
		supply:     new(uint256.Int),
		balances:   make(map[common.Address]*uint256.Int),
		allowances: make(map[common.Address]map[common.Address]*uint256.Int),
	}
}

// Address implements asset.Asset.
func (t *Token) Address() common.Address { return t.address }

// Decimals implements asset.Asset.
func (t *Token) Decimals() uint8 { return t.decimals }

// Symbol returns the ticker the token was created with.
func (t *Token) Symbol() string { return t.symbol }

// TotalSupply returns the minted amount.
func (t *Token) TotalSupply() *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(uint256.Int).Set(t.supply)
}

// Mint credits amount to account.
func (t *Token) Mint(account common.Address, amount *uint256.Int) error {
	if account == (common.Address{}) {
		return asset.ErrZeroAddress
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	supply, overflow := new(uint256.Int).AddOverflow(t.supply, amount)
	if overflow {
		return fmt.Errorf("memtoken: mint overflows total supply")
	}
	t.supply = supply
	t.balances[account] = new(uint256.Int).Add(t.balanceLocked(account), amount)
	return nil
}

// Approve sets the allowance owner grants to spender.
func (t *Token) Approve(owner, spender common.Address, amount *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.setAllowanceLocked(owner, spender, new(uint256.Int).Set(amount))
}

// Allowance returns what spender may still move on behalf of owner.
func (t *Token) Allowance(owner, spender common.Address) *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(uint256.Int).Set(t.allowanceLocked(owner, spender))
}

// FailNext makes the next Transfer or TransferFrom return err without
// moving anything.
func (t *Token) FailNext(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failNext = err
}

// Transfers returns the successful transfers in order.
func (t *Token) Transfers() []Transfer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Transfer, len(t.transferLog))
	copy(out, t.transferLog)
	return out
}

// BalanceOf implements asset.Asset.
func (t *Token) BalanceOf(_ context.Context, account common.Address) (*uint256.Int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(uint256.Int).Set(t.balanceLocked(account)), nil
}

// Transfer implements asset.Asset.
func (t *Token) Transfer(_ context.Context, from, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.takeFailure(); err != nil {
		return err
	}
	return t.moveLocked(from, to, amount)
}

// TransferFrom implements asset.Asset.
func (t *Token) TransferFrom(_ context.Context, spender, from, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.takeFailure(); err != nil {
		return err
	}
	allowed := t.allowanceLocked(from, spender)
	if allowed.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", asset.ErrInsufficientAllowance, spender.Hex(), allowed.Dec(), amount.Dec())
	}
	if err := t.moveLocked(from, to, amount); err != nil {
		return err
	}
	t.setAllowanceLocked(from, spender, new(uint256.Int).Sub(allowed, amount))
	return nil
}

func (t *Token) setAllowanceLocked(owner, spender common.Address, amount *uint256.Int) {
	m, ok := t.allowances[owner]
	if !ok {
		m = make(map[common.Address]*uint256.Int)
		t.allowances[owner] = m
	}
	m[spender] = amount
}

func (t *Token) moveLocked(from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return asset.ErrZeroAddress
	}
	bal := t.balanceLocked(from)
	if bal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", asset.ErrInsufficientBalance, from.Hex(), bal.Dec(), amount.Dec())
	}
	t.balances[from] = new(uint256.Int).Sub(bal, amount)
	t.balances[to] = new(uint256.Int).Add(t.balanceLocked(to), amount)
	t.transferLog = append(t.transferLog, Transfer{From: from, To: to, Amount: new(uint256.Int).Set(amount)})
	return nil
}

func (t *Token) takeFailure() error {
	err := t.failNext
	t.failNext = nil
	return err
}

func (t *Token) balanceLocked(account common.Address) *uint256.Int {
	if b, ok := t.balances[account]; ok {
		return b
	}
	return new(uint256.Int)
}

func (t *Token) allowanceLocked(owner, spender common.Address) *uint256.Int {
	if m, ok := t.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return a
		}
	}
	return new(uint256.Int)
}
