package core

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ValueLedger is the external fungible token holding the stake in custody.
// Calls are issued with the governor's own address as sender.
type ValueLedger interface {
	TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	TotalSupply(ctx context.Context) (*big.Int, error)
}

// Target is a contract a passed proposal acts on.
type Target interface {
	Invoke(ctx context.Context, selector string, recipient common.Address, amount *big.Int) error
}

// TargetResolver finds the callable contract deployed at an address.
type TargetResolver interface {
	Resolve(addr common.Address) (Target, error)
}
