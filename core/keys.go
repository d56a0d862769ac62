package core

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

// Persisted tables, all under the "gov" namespace.
var (
	proposalCountKey = []byte("gov/proposal-count")

	proposalPrefix = []byte("gov/proposal/")
	votersPrefix   = []byte("gov/voters/")
	votePrefix     = []byte("gov/vote/")
	accountPrefix  = []byte("gov/account/")
)

func idBytes(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

func join(parts ...[]byte) []byte {
	var key []byte
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

func proposalKey(id uint64) []byte {
	return join(proposalPrefix, idBytes(id))
}

func votersKey(id uint64) []byte {
	return join(votersPrefix, idBytes(id))
}

func voteKey(id uint64, voter common.Address) []byte {
	return join(votePrefix, idBytes(id), voter.Bytes())
}

func accountKey(addr common.Address) []byte {
	return join(accountPrefix, addr.Bytes())
}
