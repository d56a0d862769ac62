package core

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

type Proposal struct {
	ID          uint64         `json:"id"`
	Target      common.Address `json:"target"`
	Selector    string         `json:"selector"`
	Description string         `json:"description"`

	VotesFor     *big.Int `json:"votes_for"`
	VotesAgainst *big.Int `json:"votes_against"`

	// unix seconds
	CreatedAt int64 `json:"created_at"`
	Deadline  int64 `json:"deadline"`

	Resolved bool `json:"resolved"`
}

// TotalVotes is the stake weight cast on both sides.
func (p *Proposal) TotalVotes() *big.Int {
	return new(big.Int).Add(p.VotesFor, p.VotesAgainst)
}

type Account struct {
	Balance *big.Int `json:"balance"`

	// PendingVotes holds the ids of unresolved proposals this account voted on, ascending.
	PendingVotes []uint64 `json:"pending_votes,omitempty"`
}

func newAccount() *Account {
	return &Account{Balance: new(big.Int)}
}

// Locked reports whether an unresolved vote pledges the stake.
func (a *Account) Locked() bool {
	return len(a.PendingVotes) > 0
}

func (a *Account) addPending(id uint64) {
	i := sort.Search(len(a.PendingVotes), func(i int) bool { return a.PendingVotes[i] >= id })
	if i < len(a.PendingVotes) && a.PendingVotes[i] == id {
		return
	}
	a.PendingVotes = append(a.PendingVotes, 0)
	copy(a.PendingVotes[i+1:], a.PendingVotes[i:])
	a.PendingVotes[i] = id
}

func (a *Account) removePending(id uint64) {
	i := sort.Search(len(a.PendingVotes), func(i int) bool { return a.PendingVotes[i] >= id })
	if i < len(a.PendingVotes) && a.PendingVotes[i] == id {
		a.PendingVotes = append(a.PendingVotes[:i], a.PendingVotes[i+1:]...)
	}
}

// VoteRecord is the weight captured when the vote was cast.
type VoteRecord struct {
	Weight  *big.Int `json:"weight"`
	InFavor bool     `json:"in_favor"`
	CastAt  int64    `json:"cast_at"`
}
