// Package evm executes passed proposals against contracts on a remote EVM chain.
package evm

import (
	"context"
	"math/big"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"
	"github.com/axiomesh/governor/calldata"
	"github.com/axiomesh/governor/core"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	dialAttempts = 5
	dialBackoff  = 2 * time.Second
)

// Dial connects to the node at url, retrying with fibonacci backoff.
func Dial(ctx context.Context, url string) (*ethclient.Client, error) {
	var client *ethclient.Client

	action := func(attempt uint) error {
		var err error
		client, err = ethclient.DialContext(ctx, url)
		return err
	}
	if err := retry.Retry(action, strategy.Limit(dialAttempts), strategy.Backoff(backoff.Fibonacci(dialBackoff))); err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}
	return client, nil
}

// Resolver turns any address into a remote target that sends the action as a
// signed transaction.
type Resolver struct {
	backend bind.ContractBackend
	opts    *bind.TransactOpts
	logger  logrus.FieldLogger
}

var _ core.TargetResolver = (*Resolver)(nil)

// NewResolver signs with the hex encoded privateKey for chainID.
func NewResolver(backend bind.ContractBackend, privateKey string, chainID uint64, logger logrus.FieldLogger) (*Resolver, error) {
	key, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, new(big.Int).SetUint64(chainID))
	if err != nil {
		return nil, errors.Wrap(err, "new transactor")
	}

	return &Resolver{backend: backend, opts: opts, logger: logger}, nil
}

// From is the account transactions are sent from.
func (r *Resolver) From() common.Address {
	return r.opts.From
}

func (r *Resolver) Resolve(addr common.Address) (core.Target, error) {
	return &target{
		address:  addr,
		contract: bind.NewBoundContract(addr, abi.ABI{}, r.backend, r.backend, r.backend),
		opts:     r.opts,
		logger:   r.logger,
	}, nil
}

type target struct {
	address  common.Address
	contract *bind.BoundContract
	opts     *bind.TransactOpts
	logger   logrus.FieldLogger
}

func (t *target) Invoke(ctx context.Context, selector string, recipient common.Address, amount *big.Int) error {
	input, err := calldata.Encode(selector, recipient, amount)
	if err != nil {
		return err
	}

	opts := *t.opts
	opts.Context = ctx
	tx, err := t.contract.RawTransact(&opts, input)
	if err != nil {
		return errors.Wrapf(err, "send %s to %s", selector, t.address)
	}

	t.logger.WithFields(logrus.Fields{
		"to":       t.address,
		"selector": selector,
		"tx":       tx.Hash(),
	}).Info("proposal action sent")
	return nil
}
