package host

import (
	"context"
	"math/big"
	"sync"

	"github.com/axiomesh/governor/calldata"
	"github.com/axiomesh/governor/core"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var ErrNoContract = errors.New("no contract at address")

// Contract is a locally hosted contract reachable by ABI calldata.
type Contract interface {
	Call(ctx context.Context, caller common.Address, input []byte) ([]byte, error)
}

// Host maps addresses to local contracts. Calls are made with the host's caller
// identity, normally the governor address. Addresses without a local contract are
// handed to the fallback resolver when one is set.
type Host struct {
	caller   common.Address
	fallback core.TargetResolver

	mu        sync.RWMutex
	contracts map[common.Address]Contract
}

var _ core.TargetResolver = (*Host)(nil)

func New(caller common.Address, fallback core.TargetResolver) *Host {
	return &Host{
		caller:    caller,
		fallback:  fallback,
		contracts: make(map[common.Address]Contract),
	}
}

func (h *Host) Register(addr common.Address, c Contract) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.contracts[addr] = c
}

func (h *Host) Contract(addr common.Address) (Contract, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.contracts[addr]
	return c, ok
}

func (h *Host) Resolve(addr common.Address) (core.Target, error) {
	if c, ok := h.Contract(addr); ok {
		return &target{caller: h.caller, contract: c}, nil
	}
	if h.fallback != nil {
		return h.fallback.Resolve(addr)
	}
	return nil, errors.Wrapf(ErrNoContract, "%s", addr)
}

type target struct {
	caller   common.Address
	contract Contract
}

func (t *target) Invoke(ctx context.Context, selector string, recipient common.Address, amount *big.Int) error {
	input, err := calldata.Encode(selector, recipient, amount)
	if err != nil {
		return err
	}
	_, err = t.contract.Call(ctx, t.caller, input)
	return err
}
