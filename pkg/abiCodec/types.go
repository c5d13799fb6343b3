// Package abiCodec encodes and decodes values of the contract interface (ABI) type
// system to and from the word-aligned binary form used in event data payloads and
// topics.
//
// Type descriptors are go-ethereum abi.Type values. Decoded values use a fixed set of
// Go representations:
//
//	uintN / intN     *big.Int
//	bool             bool
//	address          common.Address
//	bytes / bytesN   hexutil.Bytes
//	string           string
//	T[] / T[k]       []interface{}
//	tuple            []interface{} (component order)
//
// Indexed parameters whose topic only carries a keccak256 digest decode to TopicHash.
package abiCodec

import (
	"fmt"
	"math/big"

	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// WordSize is the size of one encoding word in bytes.
const WordSize = 32

var (
	tt256 = new(big.Int).Lsh(big.NewInt(1), 256)
)

// TopicHash is the decoded form of an indexed string, bytes, array or tuple parameter.
// The topic only holds the keccak256 digest of the original value, which cannot be
// recovered; callers can compare it against the hash of a candidate value or pass it
// back as a topic constraint.
type TopicHash struct {
	Type string      `json:"type"`
	Hash common.Hash `json:"hash"`
}

func (h TopicHash) String() string {
	return fmt.Sprintf("hash(%s):%s", h.Type, h.Hash.Hex())
}

// IsDynamic reports whether the type is encoded out-of-line (behind an offset) when it
// appears inside a tuple.
func IsDynamic(t abi.Type) bool {
	switch t.T {
	case abi.StringTy, abi.BytesTy, abi.SliceTy:
		return true
	case abi.ArrayTy:
		return IsDynamic(*t.Elem)
	case abi.TupleTy:
		for _, elem := range t.TupleElems {
			if IsDynamic(*elem) {
				return true
			}
		}
	}
	return false
}

// IsHashedInTopic reports whether an indexed parameter of this type is stored as the
// keccak256 digest of its value rather than the value itself.
func IsHashedInTopic(t abi.Type) bool {
	switch t.T {
	case abi.StringTy, abi.BytesTy, abi.SliceTy, abi.ArrayTy, abi.TupleTy:
		return true
	}
	return false
}

// HeadSize is the number of bytes the type occupies in the head section of a tuple.
func HeadSize(t abi.Type) int {
	if IsDynamic(t) {
		return WordSize
	}
	switch t.T {
	case abi.ArrayTy:
		return t.Size * HeadSize(*t.Elem)
	case abi.TupleTy:
		size := 0
		for _, elem := range t.TupleElems {
			size += HeadSize(*elem)
		}
		return size
	}
	return WordSize
}

// CheckSupported returns a TypeError if the type, or any of its components, cannot be
// encoded by this package.
func CheckSupported(t abi.Type) error {
	switch t.T {
	case abi.IntTy, abi.UintTy, abi.BoolTy, abi.AddressTy, abi.StringTy, abi.BytesTy, abi.FixedBytesTy, abi.FunctionTy:
		return nil
	case abi.SliceTy, abi.ArrayTy:
		return CheckSupported(*t.Elem)
	case abi.TupleTy:
		for _, elem := range t.TupleElems {
			if err := CheckSupported(*elem); err != nil {
				return err
			}
		}
		return nil
	default:
		return eventErrors.NewUnsupportedTypeError(t.String(), "no encoding rules for this type")
	}
}

// integerBounds returns the inclusive minimum and maximum value of an intN/uintN type.
func integerBounds(t abi.Type) (*big.Int, *big.Int) {
	one := big.NewInt(1)
	if t.T == abi.UintTy {
		maxValue := new(big.Int).Lsh(one, uint(t.Size))
		return big.NewInt(0), maxValue.Sub(maxValue, one)
	}
	half := new(big.Int).Lsh(one, uint(t.Size-1))
	minValue := new(big.Int).Neg(half)
	return minValue, new(big.Int).Sub(half, one)
}

func inIntegerRange(t abi.Type, v *big.Int) bool {
	minValue, maxValue := integerBounds(t)
	return v.Cmp(minValue) >= 0 && v.Cmp(maxValue) <= 0
}

func ceilWords(n int) int {
	return (n + WordSize - 1) / WordSize * WordSize
}
