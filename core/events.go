package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type EventType uint8

const (
	ProposalRaised EventType = iota
	Deposited
	Voted
	Withdrawn
	ProposalResolved
)

func (t EventType) String() string {
	switch t {
	case ProposalRaised:
		return "proposal_raised"
	case Deposited:
		return "deposited"
	case Voted:
		return "voted"
	case Withdrawn:
		return "withdrawn"
	case ProposalResolved:
		return "proposal_resolved"
	default:
		return "unknown"
	}
}

// Event is published after the operation that produced it has committed.
type Event struct {
	Type       EventType
	ProposalID uint64
	Account    common.Address
	Amount     *big.Int

	// Voted only
	InFavor bool

	// ProposalResolved only: quorum reached and majority in favor.
	// It says nothing about whether the downstream call succeeded.
	Passed bool
}
