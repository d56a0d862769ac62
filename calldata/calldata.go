// Package calldata builds EVM call payloads for governance actions.
//
// A proposal only names a function signature such as "mint(address,uint256)".
// The payload is the first four bytes of its keccak256 hash followed by the
// ABI encoding of the (recipient, amount) pair, the same bytes Solidity's
// abi.encodeWithSignature produces. The signature is hashed verbatim, so a
// malformed signature yields a selector no contract implements.
package calldata

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const SelectorLength = 4

var (
	addressType = mustType("address")
	uint256Type = mustType("uint256")

	actionArgs = abi.Arguments{
		{Name: "recipient", Type: addressType},
		{Name: "amount", Type: uint256Type},
	}
)

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// Selector returns the 4-byte method id of signature.
func Selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:SelectorLength]
}

// Encode packs the governance action arguments behind the selector of signature.
func Encode(signature string, recipient common.Address, amount *big.Int) ([]byte, error) {
	if amount == nil {
		amount = new(big.Int)
	}
	if amount.Sign() < 0 {
		return nil, errors.Errorf("negative amount %s", amount)
	}

	args, err := actionArgs.Pack(recipient, amount)
	if err != nil {
		return nil, errors.Wrapf(err, "pack arguments of %q", signature)
	}

	return append(Selector(signature), args...), nil
}

// Decode splits an action payload back into its selector and arguments.
func Decode(data []byte) (selector []byte, recipient common.Address, amount *big.Int, err error) {
	if len(data) < SelectorLength {
		return nil, common.Address{}, nil, errors.Errorf("calldata too short: %d bytes", len(data))
	}

	values, err := actionArgs.Unpack(data[SelectorLength:])
	if err != nil {
		return nil, common.Address{}, nil, errors.Wrap(err, "unpack arguments")
	}

	return data[:SelectorLength], values[0].(common.Address), values[1].(*big.Int), nil
}
