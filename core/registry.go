package core

import (
	"encoding/binary"
	"math/big"

	"github.com/axiomesh/governor/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// registry is the proposal table. Authorization and time checks belong to the Governor.
type registry struct {
	txn *state.Txn
}

func (r *registry) count() uint64 {
	data := r.txn.Get(proposalCountKey)
	if data == nil {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

func (r *registry) create(target common.Address, selector, description string, createdAt, deadline int64) (*Proposal, error) {
	id := r.count()
	p := &Proposal{
		ID:           id,
		Target:       target,
		Selector:     selector,
		Description:  description,
		VotesFor:     new(big.Int),
		VotesAgainst: new(big.Int),
		CreatedAt:    createdAt,
		Deadline:     deadline,
	}
	if err := r.txn.PutJSON(proposalKey(id), p); err != nil {
		return nil, err
	}
	r.txn.Put(proposalCountKey, idBytes(id+1))
	return p, nil
}

func (r *registry) get(id uint64) (*Proposal, error) {
	p := &Proposal{}
	ok, err := r.txn.GetJSON(proposalKey(id), p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "proposal %d", id)
	}
	return p, nil
}

func (r *registry) recordVote(id uint64, voter common.Address, weight *big.Int, inFavor bool, castAt int64) (*Proposal, error) {
	p, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if inFavor {
		p.VotesFor.Add(p.VotesFor, weight)
	} else {
		p.VotesAgainst.Add(p.VotesAgainst, weight)
	}
	if err := r.txn.PutJSON(proposalKey(id), p); err != nil {
		return nil, err
	}

	record := &VoteRecord{
		Weight:  new(big.Int).Set(weight),
		InFavor: inFavor,
		CastAt:  castAt,
	}
	if err := r.txn.PutJSON(voteKey(id, voter), record); err != nil {
		return nil, err
	}

	voters, err := r.voters(id)
	if err != nil {
		return nil, err
	}
	if err := r.txn.PutJSON(votersKey(id), append(voters, voter)); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *registry) hasVoted(id uint64, voter common.Address) bool {
	return r.txn.Has(voteKey(id, voter))
}

func (r *registry) vote(id uint64, voter common.Address) (*VoteRecord, bool, error) {
	record := &VoteRecord{}
	ok, err := r.txn.GetJSON(voteKey(id, voter), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

// voters lists the accounts that voted on id in casting order.
func (r *registry) voters(id uint64) ([]common.Address, error) {
	var voters []common.Address
	if _, err := r.txn.GetJSON(votersKey(id), &voters); err != nil {
		return nil, err
	}
	return voters, nil
}

func (r *registry) resolve(id uint64) (*Proposal, error) {
	p, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if p.Resolved {
		return nil, errors.Wrapf(ErrAlreadyResolved, "proposal %d", id)
	}
	p.Resolved = true
	if err := r.txn.PutJSON(proposalKey(id), p); err != nil {
		return nil, err
	}
	return p, nil
}
