package abiCodec

import (
	"math/big"
	"reflect"

	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
)

// Encode returns the encoding of a single value. Static types produce their inline
// words; dynamic types produce the tail encoding that a tuple offset would point at.
func Encode(t abi.Type, v interface{}) ([]byte, error) {
	switch t.T {
	case abi.IntTy, abi.UintTy:
		return encodeInteger(t, v)
	case abi.BoolTy:
		b, ok := v.(bool)
		if !ok {
			return nil, mismatch(t, v)
		}
		word := make([]byte, WordSize)
		if b {
			word[WordSize-1] = 1
		}
		return word, nil
	case abi.AddressTy:
		addr, ok := toAddress(v)
		if !ok {
			return nil, mismatch(t, v)
		}
		return common.LeftPadBytes(addr.Bytes(), WordSize), nil
	case abi.FixedBytesTy, abi.FunctionTy:
		b, ok := toBytes(v)
		if !ok {
			return nil, mismatch(t, v)
		}
		if len(b) != t.Size {
			return nil, eventErrors.NewTypeMismatchError(t.String(), "expected %d bytes, got %d", t.Size, len(b))
		}
		return common.RightPadBytes(b, WordSize), nil
	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return nil, mismatch(t, v)
		}
		return encodeDynamicBytes([]byte(s)), nil
	case abi.BytesTy:
		b, ok := toBytes(v)
		if !ok {
			return nil, mismatch(t, v)
		}
		return encodeDynamicBytes(b), nil
	case abi.SliceTy:
		elems, ok := toSlice(v)
		if !ok {
			return nil, mismatch(t, v)
		}
		body, err := encodeSequence(repeatType(*t.Elem, len(elems)), elems)
		if err != nil {
			return nil, err
		}
		return append(encodeLength(len(elems)), body...), nil
	case abi.ArrayTy:
		elems, ok := toSlice(v)
		if !ok {
			return nil, mismatch(t, v)
		}
		if len(elems) != t.Size {
			return nil, eventErrors.NewTypeMismatchError(t.String(), "expected %d elements, got %d", t.Size, len(elems))
		}
		return encodeSequence(repeatType(*t.Elem, len(elems)), elems)
	case abi.TupleTy:
		elems, ok := toSlice(v)
		if !ok {
			return nil, mismatch(t, v)
		}
		if len(elems) != len(t.TupleElems) {
			return nil, eventErrors.NewTypeMismatchError(t.String(), "expected %d components, got %d", len(t.TupleElems), len(elems))
		}
		types := make([]abi.Type, len(t.TupleElems))
		for i, elem := range t.TupleElems {
			types[i] = *elem
		}
		return encodeSequence(types, elems)
	default:
		return nil, eventErrors.NewUnsupportedTypeError(t.String(), "no encoding rules for this type")
	}
}

// EncodeTuple encodes values as a tuple of the given types: static members inline in
// the head, dynamic members as an offset in the head pointing into the tail.
func EncodeTuple(types []abi.Type, values []interface{}) ([]byte, error) {
	if len(types) != len(values) {
		return nil, eventErrors.NewTypeMismatchError("tuple", "expected %d values, got %d", len(types), len(values))
	}
	return encodeSequence(types, values)
}

func encodeSequence(types []abi.Type, values []interface{}) ([]byte, error) {
	headLength := 0
	for _, t := range types {
		headLength += HeadSize(t)
	}

	head := make([]byte, 0, headLength)
	tail := make([]byte, 0)
	for i, t := range types {
		encoded, err := Encode(t, values[i])
		if err != nil {
			return nil, err
		}
		if IsDynamic(t) {
			head = append(head, encodeLength(headLength+len(tail))...)
			tail = append(tail, encoded...)
		} else {
			head = append(head, encoded...)
		}
	}
	return append(head, tail...), nil
}

func encodeInteger(t abi.Type, v interface{}) ([]byte, error) {
	n, ok := toBigInt(v)
	if !ok {
		return nil, mismatch(t, v)
	}
	if !inIntegerRange(t, n) {
		return nil, eventErrors.NewTypeMismatchError(t.String(), "value %s out of range", n.String())
	}
	// U256Bytes mutates its argument
	return math.U256Bytes(new(big.Int).Set(n)), nil
}

func encodeLength(n int) []byte {
	return math.U256Bytes(big.NewInt(int64(n)))
}

func encodeDynamicBytes(b []byte) []byte {
	out := encodeLength(len(b))
	if len(b) == 0 {
		return out
	}
	return append(out, common.RightPadBytes(b, ceilWords(len(b)))...)
}

func repeatType(t abi.Type, n int) []abi.Type {
	types := make([]abi.Type, n)
	for i := range types {
		types[i] = t
	}
	return types
}

func mismatch(t abi.Type, v interface{}) error {
	return eventErrors.NewTypeMismatchError(t.String(), "cannot encode value of Go type %T", v)
}

func toBigInt(v interface{}) (*big.Int, bool) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, false
		}
		return n, true
	case *hexutil.Big:
		if n == nil {
			return nil, false
		}
		return n.ToInt(), true
	case int:
		return big.NewInt(int64(n)), true
	case int8:
		return big.NewInt(int64(n)), true
	case int16:
		return big.NewInt(int64(n)), true
	case int32:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case uint:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	}
	return nil, false
}

func toAddress(v interface{}) (common.Address, bool) {
	switch a := v.(type) {
	case common.Address:
		return a, true
	case *common.Address:
		if a == nil {
			return common.Address{}, false
		}
		return *a, true
	}
	return common.Address{}, false
}

func toBytes(v interface{}) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case hexutil.Bytes:
		return b, true
	case common.Hash:
		return b.Bytes(), true
	}
	// fixed-size byte arrays such as [4]byte
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		out := make([]byte, rv.Len())
		for i := range out {
			out[i] = byte(rv.Index(i).Uint())
		}
		return out, true
	}
	return nil, false
}

func toSlice(v interface{}) ([]interface{}, bool) {
	if elems, ok := v.([]interface{}); ok {
		return elems, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	elems := make([]interface{}, rv.Len())
	for i := range elems {
		elems[i] = rv.Index(i).Interface()
	}
	return elems, true
}
