// Package token is a fungible token ledger with ERC20 semantics kept in the local state.
// Minting is open to any caller.
package token

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/axiomesh/governor/state"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	ErrInsufficientBalance   = errors.New("ERC20: transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("ERC20: insufficient allowance")
	ErrZeroAddress           = errors.New("ERC20: zero address")
	ErrNegativeAmount        = errors.New("ERC20: negative amount")
	ErrUnknownMethod         = errors.New("unknown method")
)

type Token struct {
	address  common.Address
	name     string
	symbol   string
	decimals uint8

	store *state.Store
	abi   abi.ABI

	mu sync.Mutex
}

func New(address common.Address, name, symbol string, decimals uint8, store *state.Store) (*Token, error) {
	parsed, err := abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse token abi")
	}

	return &Token{
		address:  address,
		name:     name,
		symbol:   symbol,
		decimals: decimals,
		store:    store,
		abi:      parsed,
	}, nil
}

func (t *Token) Address() common.Address {
	return t.address
}

func (t *Token) Name() string {
	return t.name
}

func (t *Token) Symbol() string {
	return t.symbol
}

func (t *Token) Decimals() uint8 {
	return t.decimals
}

func (t *Token) supplyKey() []byte {
	return []byte("token/" + t.address.Hex() + "/supply")
}

func (t *Token) balanceKey(addr common.Address) []byte {
	return append([]byte("token/"+t.address.Hex()+"/balance/"), addr.Bytes()...)
}

func (t *Token) allowanceKey(owner, spender common.Address) []byte {
	key := append([]byte("token/"+t.address.Hex()+"/allowance/"), owner.Bytes()...)
	return append(key, spender.Bytes()...)
}

type getter interface {
	Get(key []byte) []byte
}

func amountAt(g getter, key []byte) *big.Int {
	return new(big.Int).SetBytes(g.Get(key))
}

func (t *Token) TotalSupply() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return amountAt(t.store, t.supplyKey())
}

func (t *Token) BalanceOf(addr common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return amountAt(t.store, t.balanceKey(addr))
}

func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return amountAt(t.store, t.allowanceKey(owner, spender))
}

func (t *Token) Mint(to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return errors.Wrap(ErrZeroAddress, "mint")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Update(func(txn *state.Txn) error {
		supply := amountAt(txn, t.supplyKey())
		txn.Put(t.supplyKey(), supply.Add(supply, amount).Bytes())
		balance := amountAt(txn, t.balanceKey(to))
		txn.Put(t.balanceKey(to), balance.Add(balance, amount).Bytes())
		return nil
	})
}

func (t *Token) Approve(owner, spender common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if spender == (common.Address{}) {
		return errors.Wrap(ErrZeroAddress, "approve")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Update(func(txn *state.Txn) error {
		txn.Put(t.allowanceKey(owner, spender), amount.Bytes())
		return nil
	})
}

func (t *Token) Transfer(from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Update(func(txn *state.Txn) error {
		return t.move(txn, from, to, amount)
	})
}

// TransferFrom moves amount from from to to, spending the allowance granted to spender.
func (t *Token) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Update(func(txn *state.Txn) error {
		allowance := amountAt(txn, t.allowanceKey(from, spender))
		if allowance.Cmp(amount) < 0 {
			return errors.Wrapf(ErrInsufficientAllowance, "%s allows %s only %s", from, spender, allowance)
		}
		txn.Put(t.allowanceKey(from, spender), allowance.Sub(allowance, amount).Bytes())
		return t.move(txn, from, to, amount)
	})
}

func (t *Token) move(txn *state.Txn, from, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return errors.Wrap(ErrZeroAddress, "transfer")
	}

	fromBalance := amountAt(txn, t.balanceKey(from))
	if fromBalance.Cmp(amount) < 0 {
		return errors.Wrapf(ErrInsufficientBalance, "%s holds %s, needs %s", from, fromBalance, amount)
	}
	txn.Put(t.balanceKey(from), fromBalance.Sub(fromBalance, amount).Bytes())

	toBalance := amountAt(txn, t.balanceKey(to))
	txn.Put(t.balanceKey(to), toBalance.Add(toBalance, amount).Bytes())
	return nil
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.Wrapf(ErrNegativeAmount, "amount %v", amount)
	}
	return nil
}

// Call executes ABI encoded input on behalf of caller and returns the ABI encoded result.
func (t *Token) Call(_ context.Context, caller common.Address, input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, errors.Wrapf(ErrUnknownMethod, "input of %d bytes", len(input))
	}
	method, err := t.abi.MethodById(input[:4])
	if err != nil {
		return nil, errors.Wrapf(ErrUnknownMethod, "selector %x", input[:4])
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s arguments", method.Name)
	}

	var out []any
	switch method.Name {
	case "name":
		out = []any{t.name}
	case "symbol":
		out = []any{t.symbol}
	case "decimals":
		out = []any{t.decimals}
	case "totalSupply":
		out = []any{t.TotalSupply()}
	case "balanceOf":
		out = []any{t.BalanceOf(args[0].(common.Address))}
	case "allowance":
		out = []any{t.Allowance(args[0].(common.Address), args[1].(common.Address))}
	case "transfer":
		err = t.Transfer(caller, args[0].(common.Address), args[1].(*big.Int))
		out = []any{true}
	case "approve":
		err = t.Approve(caller, args[0].(common.Address), args[1].(*big.Int))
		out = []any{true}
	case "transferFrom":
		err = t.TransferFrom(caller, args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int))
		out = []any{true}
	case "mint":
		err = t.Mint(args[0].(common.Address), args[1].(*big.Int))
	default:
		return nil, errors.Wrapf(ErrUnknownMethod, "method %s", method.Name)
	}
	if err != nil {
		return nil, err
	}

	return method.Outputs.Pack(out...)
}

// Session binds the token to a fixed sender, the way a contract holding tokens calls it.
type Session struct {
	token  *Token
	sender common.Address
}

func (t *Token) Session(sender common.Address) *Session {
	return &Session{token: t, sender: sender}
}

func (s *Session) TransferFrom(_ context.Context, from, to common.Address, amount *big.Int) error {
	return s.token.TransferFrom(s.sender, from, to, amount)
}

func (s *Session) Transfer(_ context.Context, to common.Address, amount *big.Int) error {
	return s.token.Transfer(s.sender, to, amount)
}

func (s *Session) BalanceOf(_ context.Context, account common.Address) (*big.Int, error) {
	return s.token.BalanceOf(account), nil
}

func (s *Session) TotalSupply(_ context.Context) (*big.Int, error) {
	return s.token.TotalSupply(), nil
}
