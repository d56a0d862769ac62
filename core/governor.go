package core

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/axiomesh/axiom-kit/log"
	"github.com/axiomesh/governor/state"
	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const maxQuorumPercent = 100

var errNoTargetResolver = errors.New("no target resolver configured")

// Config is fixed for the lifetime of a Governor.
type Config struct {
	// Address is the custodian identity the stake is transferred to.
	Address       common.Address
	Chair         common.Address
	DebatePeriod  time.Duration
	QuorumPercent uint64
}

func (c *Config) validate() error {
	if c.Chair == (common.Address{}) {
		return errors.New("chair address is empty")
	}
	if c.Address == (common.Address{}) {
		return errors.New("governor address is empty")
	}
	if c.DebatePeriod < 0 {
		return errors.Errorf("negative debate period %s", c.DebatePeriod)
	}
	if c.QuorumPercent > maxQuorumPercent {
		return errors.Errorf("quorum percent %d exceeds %d", c.QuorumPercent, maxQuorumPercent)
	}
	return nil
}

type Option func(*Governor)

func WithLogger(logger *logrus.Logger) Option {
	return func(g *Governor) {
		g.logger = logger
	}
}

func WithClock(c clock.Clock) Option {
	return func(g *Governor) {
		g.clock = c
	}
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(g *Governor) {
		g.registerer = reg
	}
}

// Governor is the token-weighted governance module. Operations are serialized and each
// one either commits all of its state changes or none of them.
type Governor struct {
	config  Config
	store   *state.Store
	ledger  ValueLedger
	targets TargetResolver

	logger     *logrus.Logger
	clock      clock.Clock
	registerer prometheus.Registerer
	metrics    *metrics
	feed       event.Feed

	mu sync.Mutex
}

func NewGovernor(config Config, store *state.Store, ledger ValueLedger, targets TargetResolver, opts ...Option) (*Governor, error) {
	if err := config.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid governor config")
	}
	if store == nil || ledger == nil {
		return nil, errors.New("governor needs a store and a value ledger")
	}

	g := &Governor{
		config:  config,
		store:   store,
		ledger:  ledger,
		targets: targets,
		logger:  log.New(),
		clock:   clock.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.metrics = newMetrics(g.registerer)

	return g, nil
}

func (g *Governor) Address() common.Address {
	return g.config.Address
}

func (g *Governor) Chair() common.Address {
	return g.config.Chair
}

func (g *Governor) DebatePeriod() time.Duration {
	return g.config.DebatePeriod
}

func (g *Governor) QuorumPercent() uint64 {
	return g.config.QuorumPercent
}

// SubscribeEvents delivers governance events to ch. Publishing blocks until every
// subscriber has received the event, so subscribers must keep draining ch.
func (g *Governor) SubscribeEvents(ch chan<- Event) event.Subscription {
	return g.feed.Subscribe(ch)
}

func (g *Governor) now() int64 {
	return g.clock.Now().Unix()
}

// RaiseProposal registers a call of selector on target. Only the chair may raise proposals.
func (g *Governor) RaiseProposal(caller, target common.Address, selector, description string) (uint64, error) {
	g.mu.Lock()

	var p *Proposal
	err := g.store.Update(func(txn *state.Txn) error {
		if caller != g.config.Chair {
			return errors.Wrapf(ErrAccessDenied, "caller %s", caller)
		}

		now := g.now()
		var err error
		p, err = (&registry{txn: txn}).create(target, selector, description, now, now+int64(g.config.DebatePeriod/time.Second))
		return err
	})
	g.mu.Unlock()
	if err != nil {
		g.logger.WithFields(logrus.Fields{"caller": caller, "err": err}).Debug("raise proposal rejected")
		return 0, err
	}

	g.metrics.proposalsRaised.Inc()
	g.logger.WithFields(logrus.Fields{
		"id":       p.ID,
		"target":   p.Target,
		"selector": p.Selector,
		"deadline": p.Deadline,
	}).Info("proposal raised")
	g.feed.Send(Event{Type: ProposalRaised, ProposalID: p.ID, Account: caller})

	return p.ID, nil
}

// Deposit moves amount of the caller's tokens into custody as voting stake.
func (g *Governor) Deposit(ctx context.Context, caller common.Address, amount *big.Int) error {
	g.mu.Lock()

	var acc *Account
	err := g.store.Update(func(txn *state.Txn) error {
		var err error
		acc, err = g.stakeLedger(txn).deposit(ctx, caller, amount)
		return err
	})
	g.mu.Unlock()
	if err != nil {
		g.logger.WithFields(logrus.Fields{"caller": caller, "err": err}).Debug("deposit rejected")
		return err
	}

	g.metrics.deposits.Inc()
	g.logger.WithFields(logrus.Fields{
		"account": caller,
		"amount":  amount,
		"balance": acc.Balance,
	}).Info("stake deposited")
	g.feed.Send(Event{Type: Deposited, Account: caller, Amount: new(big.Int).Set(amount)})

	return nil
}

// Vote casts the caller's whole current stake on proposal id. The stake stays locked
// until the proposal is resolved.
func (g *Governor) Vote(caller common.Address, id uint64, inFavor bool) error {
	g.mu.Lock()

	weight := new(big.Int)
	err := g.store.Update(func(txn *state.Txn) error {
		reg := &registry{txn: txn}
		stake := g.stakeLedger(txn)

		p, err := reg.get(id)
		if err != nil {
			return err
		}
		acc, err := stake.account(caller)
		if err != nil {
			return err
		}
		if acc.Balance.Sign() <= 0 {
			return errors.Wrapf(ErrInsufficientFunds, "vote by %s", caller)
		}
		if reg.hasVoted(id, caller) {
			return errors.Wrapf(ErrAlreadyVoted, "%s on proposal %d", caller, id)
		}
		if p.Resolved {
			return errors.Wrapf(ErrAlreadyResolved, "proposal %d", id)
		}

		weight.Set(acc.Balance)
		if _, err := reg.recordVote(id, caller, weight, inFavor, g.now()); err != nil {
			return err
		}
		return stake.markVotePending(caller, id)
	})
	g.mu.Unlock()
	if err != nil {
		g.logger.WithFields(logrus.Fields{"caller": caller, "id": id, "err": err}).Debug("vote rejected")
		return err
	}

	g.metrics.votesCast.WithLabelValues(side(inFavor)).Inc()
	g.logger.WithFields(logrus.Fields{
		"id":       id,
		"account":  caller,
		"weight":   weight,
		"in_favor": inFavor,
	}).Info("vote cast")
	g.feed.Send(Event{Type: Voted, ProposalID: id, Account: caller, Amount: weight, InFavor: inFavor})

	return nil
}

// Withdraw returns the caller's whole stake. It fails while an unresolved vote pledges it.
func (g *Governor) Withdraw(ctx context.Context, caller common.Address) (*big.Int, error) {
	g.mu.Lock()

	var amount *big.Int
	err := g.store.Update(func(txn *state.Txn) error {
		var err error
		amount, err = g.stakeLedger(txn).withdraw(ctx, caller)
		return err
	})
	g.mu.Unlock()
	if err != nil {
		g.logger.WithFields(logrus.Fields{"caller": caller, "err": err}).Debug("withdraw rejected")
		return nil, err
	}

	g.metrics.withdrawals.Inc()
	g.logger.WithFields(logrus.Fields{"account": caller, "amount": amount}).Info("stake withdrawn")
	g.feed.Send(Event{Type: Withdrawn, Account: caller, Amount: new(big.Int).Set(amount)})

	return amount, nil
}

// ResolveProposal finalizes proposal id once its debate period is over. When quorum and
// majority hold, the proposal's call is attempted with (recipient, amount); the outcome of
// that call never fails the resolution. Every voter's stake lock on id is released.
func (g *Governor) ResolveProposal(ctx context.Context, caller common.Address, id uint64, recipient common.Address, amount *big.Int) error {
	g.mu.Lock()

	var passed bool
	err := g.store.Update(func(txn *state.Txn) error {
		reg := &registry{txn: txn}
		stake := g.stakeLedger(txn)

		p, err := reg.get(id)
		if err != nil {
			return err
		}
		if p.Resolved {
			return errors.Wrapf(ErrAlreadyResolved, "proposal %d", id)
		}
		if now := g.now(); now < p.Deadline {
			return errors.Wrapf(ErrTimeNotElapsed, "proposal %d deadline %d, now %d", id, p.Deadline, now)
		}

		supply, err := g.ledger.TotalSupply(ctx)
		if err != nil {
			return errors.Wrap(err, "read total supply")
		}
		passed = p.TotalVotes().Cmp(g.quorumThreshold(supply)) >= 0 && p.VotesFor.Cmp(p.VotesAgainst) > 0

		if _, err := reg.resolve(id); err != nil {
			return err
		}
		voters, err := reg.voters(id)
		if err != nil {
			return err
		}
		for _, voter := range voters {
			if err := stake.clearVotePending(voter, id); err != nil {
				return err
			}
		}

		if passed {
			if err := g.execute(ctx, p, recipient, amount); err != nil {
				g.metrics.executionFailures.Inc()
				g.logger.WithFields(logrus.Fields{
					"id":       id,
					"target":   p.Target,
					"selector": p.Selector,
					"err":      err,
				}).Warn("proposal execution failed")
			}
		}
		return nil
	})
	g.mu.Unlock()
	if err != nil {
		g.logger.WithFields(logrus.Fields{"caller": caller, "id": id, "err": err}).Debug("resolve rejected")
		return err
	}

	g.metrics.resolutions.WithLabelValues(outcome(passed)).Inc()
	g.logger.WithFields(logrus.Fields{"id": id, "caller": caller, "passed": passed}).Info("proposal resolved")
	g.feed.Send(Event{Type: ProposalResolved, ProposalID: id, Account: caller, Passed: passed})

	return nil
}

// execute is the error boundary around the downstream call.
func (g *Governor) execute(ctx context.Context, p *Proposal, recipient common.Address, amount *big.Int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("target panicked: %v", r)
		}
	}()

	if g.targets == nil {
		return errNoTargetResolver
	}
	target, err := g.targets.Resolve(p.Target)
	if err != nil {
		return errors.Wrapf(err, "resolve target %s", p.Target)
	}
	return target.Invoke(ctx, p.Selector, recipient, amount)
}

// quorumThreshold is QuorumPercent of supply, truncated.
func (g *Governor) quorumThreshold(supply *big.Int) *big.Int {
	if supply == nil {
		return new(big.Int)
	}
	threshold := new(big.Int).Mul(supply, new(big.Int).SetUint64(g.config.QuorumPercent))
	return threshold.Quo(threshold, big.NewInt(maxQuorumPercent))
}

func (g *Governor) stakeLedger(txn *state.Txn) *stakeLedger {
	return &stakeLedger{txn: txn, ledger: g.ledger, custodian: g.config.Address}
}

func outcome(passed bool) string {
	if passed {
		return "passed"
	}
	return "rejected"
}

func (g *Governor) Proposal(id uint64) (*Proposal, error) {
	var p *Proposal
	err := g.read(func(txn *state.Txn) error {
		var err error
		p, err = (&registry{txn: txn}).get(id)
		return err
	})
	return p, err
}

func (g *Governor) ProposalCount() uint64 {
	var n uint64
	_ = g.read(func(txn *state.Txn) error {
		n = (&registry{txn: txn}).count()
		return nil
	})
	return n
}

func (g *Governor) Account(addr common.Address) (*Account, error) {
	var acc *Account
	err := g.read(func(txn *state.Txn) error {
		var err error
		acc, err = g.stakeLedger(txn).account(addr)
		return err
	})
	return acc, err
}

// VoteOf returns the record of voter on proposal id, if any.
func (g *Governor) VoteOf(id uint64, voter common.Address) (*VoteRecord, bool, error) {
	var (
		record *VoteRecord
		ok     bool
	)
	err := g.read(func(txn *state.Txn) error {
		var err error
		record, ok, err = (&registry{txn: txn}).vote(id, voter)
		return err
	})
	return record, ok, err
}

func (g *Governor) read(fn func(*state.Txn) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	txn := g.store.NewTxn()
	defer txn.Rollback()
	return fn(txn)
}
