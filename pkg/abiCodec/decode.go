package abiCodec

import (
	"math/big"

	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// Decode reads one value of type t from data starting at offset. For dynamic types the
// offset must point at the start of the value's tail encoding (its length word for
// bytes, string and T[]). It returns the value and the number of bytes consumed from
// offset, including any out-of-line tails.
func Decode(t abi.Type, data []byte, offset int) (interface{}, int, error) {
	if offset < 0 || offset > len(data) {
		return nil, 0, eventErrors.NewTruncatedError(t.String(), "offset %d outside payload of %d bytes", offset, len(data))
	}

	switch t.T {
	case abi.IntTy, abi.UintTy:
		word, err := readWord(t, data, offset)
		if err != nil {
			return nil, 0, err
		}
		v, err := decodeInteger(t, word)
		if err != nil {
			return nil, 0, err
		}
		return v, WordSize, nil
	case abi.BoolTy:
		word, err := readWord(t, data, offset)
		if err != nil {
			return nil, 0, err
		}
		b, err := readBool(word)
		if err != nil {
			return nil, 0, eventErrors.NewMalformedError(t.String(), "%v", err)
		}
		return b, WordSize, nil
	case abi.AddressTy:
		word, err := readWord(t, data, offset)
		if err != nil {
			return nil, 0, err
		}
		return common.BytesToAddress(word[WordSize-common.AddressLength:]), WordSize, nil
	case abi.FixedBytesTy, abi.FunctionTy:
		word, err := readWord(t, data, offset)
		if err != nil {
			return nil, 0, err
		}
		return hexutil.Bytes(common.CopyBytes(word[:t.Size])), WordSize, nil
	case abi.StringTy, abi.BytesTy:
		content, consumed, err := readDynamicBytes(t, data, offset)
		if err != nil {
			return nil, 0, err
		}
		if t.T == abi.StringTy {
			return string(content), consumed, nil
		}
		return hexutil.Bytes(content), consumed, nil
	case abi.SliceTy:
		n, err := readLength(t, data, offset)
		if err != nil {
			return nil, 0, err
		}
		body := data[offset+WordSize:]
		if elemHead := HeadSize(*t.Elem); n > 0 && elemHead > 0 && n > len(body)/elemHead {
			return nil, 0, eventErrors.NewTruncatedError(t.String(), "%d elements do not fit in %d bytes", n, len(body))
		}
		values, consumed, err := decodeSequence(repeatType(*t.Elem, n), body)
		if err != nil {
			return nil, 0, err
		}
		return values, WordSize + consumed, nil
	case abi.ArrayTy:
		values, consumed, err := decodeSequence(repeatType(*t.Elem, t.Size), data[offset:])
		if err != nil {
			return nil, 0, err
		}
		return values, consumed, nil
	case abi.TupleTy:
		types := make([]abi.Type, len(t.TupleElems))
		for i, elem := range t.TupleElems {
			types[i] = *elem
		}
		values, consumed, err := decodeSequence(types, data[offset:])
		if err != nil {
			return nil, 0, err
		}
		return values, consumed, nil
	default:
		return nil, 0, eventErrors.NewUnsupportedTypeError(t.String(), "no decoding rules for this type")
	}
}

// DecodeTuple decodes data as a tuple of the given types, resolving head offsets for
// dynamic members.
func DecodeTuple(types []abi.Type, data []byte) ([]interface{}, error) {
	values, _, err := decodeSequence(types, data)
	return values, err
}

func decodeSequence(types []abi.Type, data []byte) ([]interface{}, int, error) {
	values := make([]interface{}, len(types))
	pos := 0
	end := 0
	for i, t := range types {
		if IsDynamic(t) {
			ptr, err := readLength(t, data, pos)
			if err != nil {
				return nil, 0, err
			}
			v, consumed, err := Decode(t, data, ptr)
			if err != nil {
				return nil, 0, err
			}
			values[i] = v
			end = max(end, ptr+consumed)
			pos += WordSize
			continue
		}
		v, consumed, err := Decode(t, data, pos)
		if err != nil {
			return nil, 0, err
		}
		values[i] = v
		pos += consumed
	}
	return values, max(end, pos), nil
}

func readWord(t abi.Type, data []byte, offset int) ([]byte, error) {
	if offset+WordSize > len(data) {
		return nil, eventErrors.NewTruncatedError(t.String(), "need %d bytes at offset %d, payload has %d", WordSize, offset, len(data))
	}
	return data[offset : offset+WordSize], nil
}

// readLength reads a word used as a length or offset. Values that cannot address the
// payload are reported as truncation.
func readLength(t abi.Type, data []byte, offset int) (int, error) {
	word, err := readWord(t, data, offset)
	if err != nil {
		return 0, err
	}
	n := new(big.Int).SetBytes(word)
	if !n.IsInt64() || n.Int64() > int64(len(data)) {
		return 0, eventErrors.NewTruncatedError(t.String(), "length or offset %s exceeds payload of %d bytes", n.String(), len(data))
	}
	return int(n.Int64()), nil
}

func readDynamicBytes(t abi.Type, data []byte, offset int) ([]byte, int, error) {
	n, err := readLength(t, data, offset)
	if err != nil {
		return nil, 0, err
	}
	start := offset + WordSize
	if start+n > len(data) {
		return nil, 0, eventErrors.NewTruncatedError(t.String(), "need %d bytes at offset %d, payload has %d", n, start, len(data))
	}
	return common.CopyBytes(data[start : start+n]), WordSize + ceilWords(n), nil
}

func decodeInteger(t abi.Type, word []byte) (*big.Int, error) {
	v := new(big.Int).SetBytes(word)
	if t.T == abi.IntTy && word[0]&0x80 != 0 {
		v.Sub(v, tt256)
	}
	if !inIntegerRange(t, v) {
		return nil, eventErrors.NewMalformedError(t.String(), "value %s out of range", v.String())
	}
	return v, nil
}

var (
	errBadBool = errors.New("abi: improperly encoded boolean value")
)

// readBool converts a 32-byte word to a boolean value.
// Valid encodings have all bytes except the last one set to zero,
// and the last byte set to either 0 (false) or 1 (true).
func readBool(word []byte) (bool, error) {
	for _, b := range word[:WordSize-1] {
		if b != 0 {
			return false, errBadBool
		}
	}
	switch word[WordSize-1] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errBadBool
	}
}
