package abiCodec

import (
	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EncodeTopic encodes a value for an indexed parameter of type t as a 32-byte topic.
//
// Value types are padded exactly as in the data encoding. string and bytes values are
// represented by the keccak256 digest of their raw contents. Arrays and tuples cannot
// be used as topic constraints unless the caller already holds the digest, passed as a
// TopicHash.
func EncodeTopic(t abi.Type, v interface{}) (common.Hash, error) {
	if h, ok := v.(TopicHash); ok {
		if !IsHashedInTopic(t) {
			return common.Hash{}, eventErrors.NewTypeMismatchError(t.String(), "a topic hash can only constrain string, bytes, array or tuple parameters")
		}
		return h.Hash, nil
	}

	switch t.T {
	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return common.Hash{}, mismatch(t, v)
		}
		return crypto.Keccak256Hash([]byte(s)), nil
	case abi.BytesTy:
		b, ok := toBytes(v)
		if !ok {
			return common.Hash{}, mismatch(t, v)
		}
		return crypto.Keccak256Hash(b), nil
	case abi.SliceTy, abi.ArrayTy, abi.TupleTy:
		return common.Hash{}, eventErrors.NewUnsupportedTypeError(t.String(), "filtering on indexed array or tuple values is not supported")
	}

	word, err := Encode(t, v)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(word), nil
}

// DecodeTopic recovers the value of an indexed parameter from its topic. Parameters
// stored as a digest yield a TopicHash and are never reconstructed.
func DecodeTopic(t abi.Type, topic common.Hash) (interface{}, error) {
	if IsHashedInTopic(t) {
		return TopicHash{Type: t.String(), Hash: topic}, nil
	}
	v, _, err := Decode(t, topic.Bytes(), 0)
	return v, err
}
