package core_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/axiomesh/axiom-kit/storage/leveldb"
	"github.com/axiomesh/governor/core"
	"github.com/axiomesh/governor/host"
	"github.com/axiomesh/governor/state"
	"github.com/axiomesh/governor/token"
	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	daoAddr   = common.HexToAddress("0x0000000000000000000000000000000000001001")
	tokenAddr = common.HexToAddress("0x00000000000000000000000000000000000e2c20")
	chair     = common.HexToAddress("0xc7f999b83af6df9e67d0a37ee7e900bf38b3d013")
	addr1     = common.HexToAddress("0x110000000000000000000000000000000000ffff")
	addr2     = common.HexToAddress("0x220000000000000000000000000000000000ffff")
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

type scenario struct {
	dao   *core.Governor
	token *token.Token
	clock *clock.Mock
}

// newScenario deploys the token and the governor with a 3 day debate period and 20%
// quorum, then mints 100 tokens to each of addr1 and addr2.
func newScenario(t *testing.T) *scenario {
	db, err := leveldb.New(t.TempDir())
	require.Nil(t, err)
	store := state.New(db)
	t.Cleanup(func() {
		_ = store.Close()
	})

	tok, err := token.New(tokenAddr, "platinum", "PL", 18, store)
	require.Nil(t, err)

	h := host.New(daoAddr, nil)
	h.Register(tokenAddr, tok)

	mock := clock.NewMock()
	dao, err := core.NewGovernor(core.Config{
		Address:       daoAddr,
		Chair:         chair,
		DebatePeriod:  3 * 24 * time.Hour,
		QuorumPercent: 20,
	}, store, tok.Session(daoAddr), h, core.WithClock(mock))
	require.Nil(t, err)

	require.Nil(t, tok.Mint(addr1, ether(100)))
	require.Nil(t, tok.Mint(addr2, ether(100)))

	return &scenario{dao: dao, token: tok, clock: mock}
}

func (s *scenario) deposit(t *testing.T, addr common.Address, amount int64) {
	require.Nil(t, s.token.Approve(addr, daoAddr, ether(100)))
	require.Nil(t, s.dao.Deposit(context.Background(), addr, ether(amount)))
}

func (s *scenario) addProposal(t *testing.T, selector string) uint64 {
	id, err := s.dao.RaiseProposal(chair, tokenAddr, selector, "test proposal")
	require.Nil(t, err)
	return id
}

func (s *scenario) increaseTime() {
	s.clock.Add(3*24*time.Hour + 10*time.Second)
}

func (s *scenario) finish(t *testing.T, id uint64) {
	require.Nil(t, s.dao.ResolveProposal(context.Background(), addr1, id, addr1, ether(50)))
}

func assertBalance(t *testing.T, tok *token.Token, addr common.Address, want *big.Int) {
	t.Helper()
	got := tok.BalanceOf(addr)
	assert.Equal(t, 0, want.Cmp(got), "balance of %s: want %s, got %s", addr, want, got)
}

func TestScenarioDeposit(t *testing.T) {
	s := newScenario(t)
	s.deposit(t, addr1, 40)

	assertBalance(t, s.token, addr1, ether(60))
	assertBalance(t, s.token, daoAddr, ether(40))
}

func TestScenarioDepositWithoutApproval(t *testing.T) {
	s := newScenario(t)

	err := s.dao.Deposit(context.Background(), addr1, ether(40))
	assert.ErrorIs(t, err, token.ErrInsufficientAllowance)

	acc, err := s.dao.Account(addr1)
	require.Nil(t, err)
	assert.Equal(t, 0, acc.Balance.Sign())
	assertBalance(t, s.token, addr1, ether(100))
}

func TestScenarioFailAddProposalIfNotChair(t *testing.T) {
	s := newScenario(t)
	_, err := s.dao.RaiseProposal(addr1, tokenAddr, "mint", "test proposal")
	assert.ErrorIs(t, err, core.ErrAccessDenied)
	assert.EqualError(t, core.ErrAccessDenied, "chairman only can create a proposal")
}

func TestScenarioVoteFailures(t *testing.T) {
	s := newScenario(t)
	id := s.addProposal(t, "mint")

	assert.ErrorIs(t, s.dao.Vote(addr1, id, true), core.ErrInsufficientFunds)

	s.deposit(t, addr1, 40)
	assert.ErrorIs(t, s.dao.Vote(addr1, 1, true), core.ErrNotFound)

	require.Nil(t, s.dao.Vote(addr1, id, true))
	assert.ErrorIs(t, s.dao.Vote(addr1, id, false), core.ErrAlreadyVoted)
}

func TestScenarioWithdraw(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	s.deposit(t, addr1, 40)

	amount, err := s.dao.Withdraw(ctx, addr1)
	require.Nil(t, err)
	assert.Equal(t, 0, amount.Cmp(ether(40)))
	assertBalance(t, s.token, addr1, ether(100))
	assertBalance(t, s.token, daoAddr, ether(0))

	_, err = s.dao.Withdraw(ctx, addr1)
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)
}

func TestScenarioFailWithdrawIfActiveProposal(t *testing.T) {
	s := newScenario(t)
	s.deposit(t, addr1, 40)
	id := s.addProposal(t, "mint")
	require.Nil(t, s.dao.Vote(addr1, id, true))

	_, err := s.dao.Withdraw(context.Background(), addr1)
	assert.ErrorIs(t, err, core.ErrActiveVoteLock)
}

func TestScenarioFinishWithoutVotes(t *testing.T) {
	s := newScenario(t)
	id := s.addProposal(t, "mint(address _to, uint256 _amount)")
	s.increaseTime()
	s.finish(t, id)

	assertBalance(t, s.token, addr1, ether(100))
}

func TestScenarioFinishWithExecution(t *testing.T) {
	s := newScenario(t)
	s.deposit(t, addr1, 100)
	s.deposit(t, addr2, 40)
	id := s.addProposal(t, "mint(address,uint256)")
	require.Nil(t, s.dao.Vote(addr1, id, true))
	require.Nil(t, s.dao.Vote(addr2, id, false))
	s.increaseTime()
	s.finish(t, id)

	assertBalance(t, s.token, addr1, ether(50))
	assert.Equal(t, 0, s.token.TotalSupply().Cmp(ether(250)))
}

func TestScenarioFinishMajorityAgainst(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	s.deposit(t, addr1, 100)
	s.deposit(t, addr2, 40)
	id := s.addProposal(t, "mint(address,uint256)")
	require.Nil(t, s.dao.Vote(addr1, id, false))
	require.Nil(t, s.dao.Vote(addr2, id, true))
	s.increaseTime()
	s.finish(t, id)

	assertBalance(t, s.token, addr1, ether(0))

	p, err := s.dao.Proposal(id)
	require.Nil(t, err)
	assert.True(t, p.Resolved)

	_, err = s.dao.Withdraw(ctx, addr1)
	require.Nil(t, err)
	_, err = s.dao.Withdraw(ctx, addr2)
	require.Nil(t, err)
	assertBalance(t, s.token, addr1, ether(100))
	assertBalance(t, s.token, addr2, ether(100))
}

func TestScenarioFinishNoQuorum(t *testing.T) {
	s := newScenario(t)
	s.deposit(t, addr1, 5)
	s.deposit(t, addr2, 5)
	id := s.addProposal(t, "mint(address,uint256)")
	require.Nil(t, s.dao.Vote(addr1, id, false))
	require.Nil(t, s.dao.Vote(addr2, id, true))
	s.increaseTime()
	s.finish(t, id)

	assertBalance(t, s.token, addr1, ether(95))
}

func TestScenarioUnanimousBelowQuorum(t *testing.T) {
	s := newScenario(t)
	s.deposit(t, addr1, 10)
	id := s.addProposal(t, "mint(address,uint256)")
	require.Nil(t, s.dao.Vote(addr1, id, true))
	s.increaseTime()
	s.finish(t, id)

	assertBalance(t, s.token, addr1, ether(90))
	assert.Equal(t, 0, s.token.TotalSupply().Cmp(ether(200)))
}

func TestScenarioMalformedSelector(t *testing.T) {
	s := newScenario(t)
	s.deposit(t, addr1, 100)
	id := s.addProposal(t, "mint")
	require.Nil(t, s.dao.Vote(addr1, id, true))
	s.increaseTime()
	s.finish(t, id)

	p, err := s.dao.Proposal(id)
	require.Nil(t, err)
	assert.True(t, p.Resolved)
	assert.Equal(t, 0, s.token.TotalSupply().Cmp(ether(200)))
}

func TestScenarioTargetWithoutContract(t *testing.T) {
	s := newScenario(t)
	s.deposit(t, addr1, 100)
	id, err := s.dao.RaiseProposal(chair, addr2, "mint(address,uint256)", "no contract there")
	require.Nil(t, err)
	require.Nil(t, s.dao.Vote(addr1, id, true))
	s.increaseTime()
	s.finish(t, id)

	p, err := s.dao.Proposal(id)
	require.Nil(t, err)
	assert.True(t, p.Resolved)
}

func TestScenarioWithdrawAfterFinish(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	s.deposit(t, addr1, 40)
	id := s.addProposal(t, "mint")
	require.Nil(t, s.dao.Vote(addr1, id, true))
	s.increaseTime()

	_, err := s.dao.Withdraw(ctx, addr1)
	assert.ErrorIs(t, err, core.ErrActiveVoteLock)

	s.finish(t, id)
	_, err = s.dao.Withdraw(ctx, addr1)
	require.Nil(t, err)
	assertBalance(t, s.token, addr1, ether(100))
	assertBalance(t, s.token, daoAddr, ether(0))
}

func TestScenarioFailFinishByTime(t *testing.T) {
	s := newScenario(t)
	id := s.addProposal(t, "mint")

	err := s.dao.ResolveProposal(context.Background(), addr1, id, addr1, ether(50))
	assert.ErrorIs(t, err, core.ErrTimeNotElapsed)
}

func TestScenarioFailFinishIfAlreadyFinished(t *testing.T) {
	s := newScenario(t)
	id := s.addProposal(t, "mint")
	s.increaseTime()
	s.finish(t, id)

	err := s.dao.ResolveProposal(context.Background(), addr1, id, addr1, ether(50))
	assert.ErrorIs(t, err, core.ErrAlreadyResolved)
}

func TestScenarioStatePersists(t *testing.T) {
	dir := t.TempDir()
	open := func() (*state.Store, *token.Token, *core.Governor) {
		db, err := leveldb.New(dir)
		require.Nil(t, err)
		store := state.New(db)
		tok, err := token.New(tokenAddr, "platinum", "PL", 18, store)
		require.Nil(t, err)
		dao, err := core.NewGovernor(core.Config{
			Address:       daoAddr,
			Chair:         chair,
			DebatePeriod:  time.Hour,
			QuorumPercent: 20,
		}, store, tok.Session(daoAddr), host.New(daoAddr, nil))
		require.Nil(t, err)
		return store, tok, dao
	}

	store, tok, dao := open()
	require.Nil(t, tok.Mint(addr1, ether(100)))
	require.Nil(t, tok.Approve(addr1, daoAddr, ether(100)))
	require.Nil(t, dao.Deposit(context.Background(), addr1, ether(40)))
	id, err := dao.RaiseProposal(chair, tokenAddr, "mint(address,uint256)", "persisted")
	require.Nil(t, err)
	require.Nil(t, dao.Vote(addr1, id, true))
	require.Nil(t, store.Close())

	store, tok, dao = open()
	defer store.Close()

	assert.Equal(t, uint64(1), dao.ProposalCount())
	p, err := dao.Proposal(id)
	require.Nil(t, err)
	assert.Equal(t, "persisted", p.Description)
	assert.Equal(t, 0, p.VotesFor.Cmp(ether(40)))

	acc, err := dao.Account(addr1)
	require.Nil(t, err)
	assert.True(t, acc.Locked())
	assertBalance(t, tok, daoAddr, ether(40))
}
