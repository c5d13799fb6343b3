package abiCodec

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// TopicHashPrefix marks a textual value as an already-hashed topic, e.g.
// "hash:0x1234...". Only valid for parameters stored as a digest.
const TopicHashPrefix = "hash:"

// ParseValue converts the textual form of a value into the Go representation Encode
// and EncodeTopic accept for type t.
//
// Integers accept decimal, 0x-prefixed hex and integral scientific notation ("1e18").
// bytes and bytesN take 0x-prefixed hex. Arrays and tuples have no textual form.
func ParseValue(t abi.Type, s string) (interface{}, error) {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, TopicHashPrefix) {
		if !IsHashedInTopic(t) {
			return nil, eventErrors.NewTypeMismatchError(t.String(), "topic hashes only apply to string, bytes, array or tuple parameters")
		}
		raw := strings.TrimPrefix(s, TopicHashPrefix)
		b, err := hexutil.Decode(raw)
		if err != nil || len(b) != common.HashLength {
			return nil, eventErrors.NewTypeMismatchError(t.String(), "invalid topic hash '%s'", raw)
		}
		return TopicHash{Type: t.String(), Hash: common.BytesToHash(b)}, nil
	}

	switch t.T {
	case abi.IntTy, abi.UintTy:
		return parseInteger(t, s)
	case abi.BoolTy:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, eventErrors.NewTypeMismatchError(t.String(), "invalid boolean '%s'", s)
		}
		return b, nil
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, eventErrors.NewTypeMismatchError(t.String(), "invalid address '%s'", s)
		}
		return common.HexToAddress(s), nil
	case abi.StringTy:
		return s, nil
	case abi.BytesTy, abi.FixedBytesTy, abi.FunctionTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, eventErrors.NewTypeMismatchError(t.String(), "invalid hex bytes '%s': %v", s, err)
		}
		return b, nil
	case abi.SliceTy, abi.ArrayTy, abi.TupleTy:
		return nil, eventErrors.NewUnsupportedTypeError(t.String(), "no textual form for array or tuple values")
	default:
		return nil, eventErrors.NewUnsupportedTypeError(t.String(), "no encoding rules for this type")
	}
}

func parseInteger(t abi.Type, s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, eventErrors.NewTypeMismatchError(t.String(), "invalid integer '%s'", s)
		}
		if !d.Equal(d.Truncate(0)) {
			return nil, eventErrors.NewTypeMismatchError(t.String(), "'%s' is not an integer", s)
		}
		n = d.BigInt()
	}
	if !inIntegerRange(t, n) {
		return nil, eventErrors.NewTypeMismatchError(t.String(), "value %s out of range", n.String())
	}
	return n, nil
}
