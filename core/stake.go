package core

import (
	"context"
	"math/big"

	"github.com/axiomesh/governor/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// stakeLedger tracks the deposited stake of every account and the votes pledging it.
type stakeLedger struct {
	txn       *state.Txn
	ledger    ValueLedger
	custodian common.Address
}

func (s *stakeLedger) account(addr common.Address) (*Account, error) {
	acc := newAccount()
	if _, err := s.txn.GetJSON(accountKey(addr), acc); err != nil {
		return nil, err
	}
	if acc.Balance == nil {
		acc.Balance = new(big.Int)
	}
	return acc, nil
}

func (s *stakeLedger) put(addr common.Address, acc *Account) error {
	return s.txn.PutJSON(accountKey(addr), acc)
}

// deposit pulls amount from addr into custody. The transfer is the last step, so a
// failing ledger leaves the buffered balance change uncommitted.
func (s *stakeLedger) deposit(ctx context.Context, addr common.Address, amount *big.Int) (*Account, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, errors.Wrapf(ErrInvalidAmount, "deposit %v", amount)
	}

	acc, err := s.account(addr)
	if err != nil {
		return nil, err
	}
	acc.Balance.Add(acc.Balance, amount)
	if err := s.put(addr, acc); err != nil {
		return nil, err
	}

	if err := s.ledger.TransferFrom(ctx, addr, s.custodian, amount); err != nil {
		return nil, errors.Wrapf(err, "transfer %s from %s", amount, addr)
	}
	return acc, nil
}

// withdraw returns the whole balance of addr and zeroes it.
func (s *stakeLedger) withdraw(ctx context.Context, addr common.Address) (*big.Int, error) {
	acc, err := s.account(addr)
	if err != nil {
		return nil, err
	}
	if acc.Balance.Sign() <= 0 {
		return nil, errors.Wrapf(ErrInsufficientFunds, "withdraw by %s", addr)
	}
	if acc.Locked() {
		return nil, errors.Wrapf(ErrActiveVoteLock, "%s has %d unresolved votes", addr, len(acc.PendingVotes))
	}

	amount := new(big.Int).Set(acc.Balance)
	acc.Balance.SetUint64(0)
	if err := s.put(addr, acc); err != nil {
		return nil, err
	}

	if err := s.ledger.Transfer(ctx, addr, amount); err != nil {
		return nil, errors.Wrapf(err, "transfer %s to %s", amount, addr)
	}
	return amount, nil
}

func (s *stakeLedger) markVotePending(addr common.Address, id uint64) error {
	acc, err := s.account(addr)
	if err != nil {
		return err
	}
	acc.addPending(id)
	return s.put(addr, acc)
}

func (s *stakeLedger) clearVotePending(addr common.Address, id uint64) error {
	acc, err := s.account(addr)
	if err != nil {
		return err
	}
	acc.removePending(id)
	return s.put(addr, acc)
}
