package abiCodec

import (
	"math/big"
	"strings"
	"testing"

	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustType(t *testing.T, typ string) abi.Type {
	abiType, err := abi.NewType(typ, "", nil)
	require.NoError(t, err)
	return abiType
}

func bigFromString(s string) *big.Int {
	n, _ := new(big.Int).SetString(s, 10)
	return n
}

func Test_ScalarRoundTrip(t *testing.T) {
	addr := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

	tests := []struct {
		typ      string
		value    interface{}
		expected interface{}
	}{
		{"uint8", uint8(255), big.NewInt(255)},
		{"uint256", bigFromString("115792089237316195423570985008687907853269984665640564039457584007913129639935"), bigFromString("115792089237316195423570985008687907853269984665640564039457584007913129639935")},
		{"uint64", uint64(1 << 63), new(big.Int).SetUint64(1 << 63)},
		{"int8", int8(-128), big.NewInt(-128)},
		{"int8", int8(127), big.NewInt(127)},
		{"int256", big.NewInt(-1), big.NewInt(-1)},
		{"int64", int64(-9223372036854775808), big.NewInt(-9223372036854775808)},
		{"int24", -8388608, big.NewInt(-8388608)},
		{"bool", true, true},
		{"bool", false, false},
		{"address", addr, addr},
		{"bytes4", [4]byte{0xde, 0xad, 0xbe, 0xef}, hexutil.Bytes{0xde, 0xad, 0xbe, 0xef}},
		{"bytes32", common.HexToHash("0x01"), hexutil.Bytes(common.HexToHash("0x01").Bytes())},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			typ := mustType(t, tt.typ)

			encoded, err := Encode(typ, tt.value)
			require.NoError(t, err)
			assert.Len(t, encoded, WordSize)

			decoded, consumed, err := Decode(typ, encoded, 0)
			require.NoError(t, err)
			assert.Equal(t, WordSize, consumed)

			if expectedInt, ok := tt.expected.(*big.Int); ok {
				assert.Equal(t, 0, expectedInt.Cmp(decoded.(*big.Int)), "expected %s, got %s", expectedInt, decoded)
				return
			}
			assert.Equal(t, tt.expected, decoded)
		})
	}
}

func Test_EncodeIntegerPadding(t *testing.T) {
	t.Run("negative values are sign extended", func(t *testing.T) {
		encoded, err := Encode(mustType(t, "int16"), -1)
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("ff", 32), common.Bytes2Hex(encoded))
	})
	t.Run("unsigned values are left padded with zeros", func(t *testing.T) {
		encoded, err := Encode(mustType(t, "uint256"), 1)
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("00", 31)+"01", common.Bytes2Hex(encoded))
	})
	t.Run("booleans use the low byte", func(t *testing.T) {
		encoded, err := Encode(mustType(t, "bool"), true)
		require.NoError(t, err)
		assert.Equal(t, byte(1), encoded[31])
		assert.Equal(t, make([]byte, 31), encoded[:31])
	})
	t.Run("fixed bytes are right padded", func(t *testing.T) {
		encoded, err := Encode(mustType(t, "bytes2"), []byte{0xab, 0xcd})
		require.NoError(t, err)
		assert.Equal(t, "abcd"+strings.Repeat("00", 30), common.Bytes2Hex(encoded))
	})
}

func Test_EncodeRejectsMismatches(t *testing.T) {
	tests := []struct {
		name  string
		typ   string
		value interface{}
	}{
		{"uint8 overflow", "uint8", 256},
		{"negative unsigned", "uint256", -1},
		{"int8 overflow", "int8", 128},
		{"string for integer", "uint256", "12"},
		{"integer for address", "address", 12},
		{"short fixed bytes", "bytes4", []byte{0x01}},
		{"bytes for string", "string", []byte("abc")},
		{"wrong static array length", "uint8[2]", []interface{}{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(mustType(t, tt.typ), tt.value)
			require.Error(t, err)

			var typeErr *eventErrors.TypeError
			require.True(t, errors.As(err, &typeErr))
			assert.Equal(t, eventErrors.TypeErrorReason_Mismatch, typeErr.Reason)
		})
	}
}

func Test_EncodeTupleMatchesGoEthereum(t *testing.T) {
	types := []abi.Type{
		mustType(t, "address"),
		mustType(t, "uint256"),
		mustType(t, "string"),
		mustType(t, "bytes"),
		mustType(t, "uint256[]"),
		mustType(t, "bool"),
		mustType(t, "string[2]"),
	}
	args := make(abi.Arguments, len(types))
	for i, typ := range types {
		args[i] = abi.Argument{Type: typ}
	}

	addr := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	values := []interface{}{
		addr,
		big.NewInt(1_000_000),
		"a string long enough to need two words of tail data",
		[]byte{0x01, 0x02, 0x03},
		[]*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)},
		true,
		[2]string{"left", "right"},
	}

	expected, err := args.Pack(values...)
	require.NoError(t, err)

	encoded, err := EncodeTuple(types, values)
	require.NoError(t, err)
	assert.Equal(t, hexutil.Encode(expected), hexutil.Encode(encoded))

	decoded, err := DecodeTuple(types, encoded)
	require.NoError(t, err)
	require.Len(t, decoded, len(types))

	assert.Equal(t, addr, decoded[0])
	assert.Equal(t, "1000000", decoded[1].(*big.Int).String())
	assert.Equal(t, values[2], decoded[2])
	assert.Equal(t, hexutil.Bytes{0x01, 0x02, 0x03}, decoded[3])

	numbers := decoded[4].([]interface{})
	require.Len(t, numbers, 3)
	assert.Equal(t, "3", numbers[2].(*big.Int).String())

	assert.Equal(t, true, decoded[5])
	assert.Equal(t, []interface{}{"left", "right"}, decoded[6])
}

func Test_DecodeTupleComponents(t *testing.T) {
	tupleType, err := abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "owner", Type: "address"},
		{Name: "label", Type: "string"},
		{Name: "amounts", Type: "uint64[]"},
	})
	require.NoError(t, err)

	type tupleValue struct {
		Owner   common.Address
		Label   string
		Amounts []uint64
	}
	owner := common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")

	packed, err := abi.Arguments{{Type: tupleType}, {Type: mustType(t, "uint8")}}.Pack(
		tupleValue{Owner: owner, Label: "vault", Amounts: []uint64{7, 8}},
		uint8(9),
	)
	require.NoError(t, err)

	decoded, err := DecodeTuple([]abi.Type{tupleType, mustType(t, "uint8")}, packed)
	require.NoError(t, err)

	tuple := decoded[0].([]interface{})
	assert.Equal(t, owner, tuple[0])
	assert.Equal(t, "vault", tuple[1])
	amounts := tuple[2].([]interface{})
	assert.Equal(t, "8", amounts[1].(*big.Int).String())
	assert.Equal(t, "9", decoded[1].(*big.Int).String())

	t.Run("re-encoding the decoded values reproduces the payload", func(t *testing.T) {
		encoded, err := EncodeTuple([]abi.Type{tupleType, mustType(t, "uint8")}, decoded)
		require.NoError(t, err)
		assert.Equal(t, packed, encoded)
	})
}

func Test_DecodeErrors(t *testing.T) {
	t.Run("short static word is truncated", func(t *testing.T) {
		_, _, err := Decode(mustType(t, "uint256"), make([]byte, 31), 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, eventErrors.ErrTruncated))
	})
	t.Run("string length beyond payload is truncated", func(t *testing.T) {
		data := append(common.LeftPadBytes([]byte{100}, 32), make([]byte, 32)...)
		_, _, err := Decode(mustType(t, "string"), data, 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, eventErrors.ErrTruncated))
	})
	t.Run("huge offset is truncated", func(t *testing.T) {
		data := common.Hex2Bytes(strings.Repeat("ff", 32))
		_, err := DecodeTuple([]abi.Type{mustType(t, "bytes")}, data)
		require.Error(t, err)
		assert.True(t, errors.Is(err, eventErrors.ErrTruncated))
	})
	t.Run("missing data parameters are truncated", func(t *testing.T) {
		_, err := DecodeTuple([]abi.Type{mustType(t, "uint256"), mustType(t, "uint256")}, make([]byte, 32))
		require.Error(t, err)
		assert.True(t, errors.Is(err, eventErrors.ErrTruncated))
	})
	t.Run("bad boolean is malformed", func(t *testing.T) {
		_, _, err := Decode(mustType(t, "bool"), common.LeftPadBytes([]byte{2}, 32), 0)
		require.Error(t, err)

		var decodeErr *eventErrors.DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, eventErrors.DecodeErrorKind_Malformed, decodeErr.Kind)
		assert.False(t, errors.Is(err, eventErrors.ErrTruncated))
	})
	t.Run("uint8 with high bits set is malformed", func(t *testing.T) {
		_, _, err := Decode(mustType(t, "uint8"), common.LeftPadBytes([]byte{1, 0}, 32), 0)
		var decodeErr *eventErrors.DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, eventErrors.DecodeErrorKind_Malformed, decodeErr.Kind)
	})
}

func Test_Topics(t *testing.T) {
	t.Run("address topics are left padded", func(t *testing.T) {
		addr := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
		topic, err := EncodeTopic(mustType(t, "address"), addr)
		require.NoError(t, err)
		assert.Equal(t, common.BytesToHash(addr.Bytes()), topic)

		decoded, err := DecodeTopic(mustType(t, "address"), topic)
		require.NoError(t, err)
		assert.Equal(t, addr, decoded)
	})
	t.Run("strings and bytes are hashed", func(t *testing.T) {
		topic, err := EncodeTopic(mustType(t, "string"), "hello")
		require.NoError(t, err)
		assert.Equal(t, crypto.Keccak256Hash([]byte("hello")), topic)

		topic, err = EncodeTopic(mustType(t, "bytes"), []byte{0x01})
		require.NoError(t, err)
		assert.Equal(t, crypto.Keccak256Hash([]byte{0x01}), topic)
	})
	t.Run("hashed kinds decode to a tagged hash", func(t *testing.T) {
		topic := crypto.Keccak256Hash([]byte("hello"))
		decoded, err := DecodeTopic(mustType(t, "string"), topic)
		require.NoError(t, err)
		assert.Equal(t, TopicHash{Type: "string", Hash: topic}, decoded)

		reencoded, err := EncodeTopic(mustType(t, "string"), decoded)
		require.NoError(t, err)
		assert.Equal(t, topic, reencoded)
	})
	t.Run("negative integers decode from topics", func(t *testing.T) {
		topic, err := EncodeTopic(mustType(t, "int32"), int32(-42))
		require.NoError(t, err)
		decoded, err := DecodeTopic(mustType(t, "int32"), topic)
		require.NoError(t, err)
		assert.Equal(t, "-42", decoded.(*big.Int).String())
	})
	t.Run("arrays cannot be used as constraints", func(t *testing.T) {
		_, err := EncodeTopic(mustType(t, "uint256[]"), []interface{}{1})
		require.Error(t, err)
		assert.True(t, errors.Is(err, eventErrors.ErrUnsupportedType))
	})
	t.Run("a topic hash cannot constrain a value type", func(t *testing.T) {
		_, err := EncodeTopic(mustType(t, "uint256"), TopicHash{Type: "uint256"})
		var typeErr *eventErrors.TypeError
		require.True(t, errors.As(err, &typeErr))
		assert.Equal(t, eventErrors.TypeErrorReason_Mismatch, typeErr.Reason)
	})
}

func Test_ParseValue(t *testing.T) {
	t.Run("integers", func(t *testing.T) {
		v, err := ParseValue(mustType(t, "uint256"), "1e18")
		require.NoError(t, err)
		assert.Equal(t, "1000000000000000000", v.(*big.Int).String())

		v, err = ParseValue(mustType(t, "uint256"), "0x10")
		require.NoError(t, err)
		assert.Equal(t, "16", v.(*big.Int).String())

		v, err = ParseValue(mustType(t, "int8"), "-5")
		require.NoError(t, err)
		assert.Equal(t, "-5", v.(*big.Int).String())

		_, err = ParseValue(mustType(t, "uint256"), "1.5")
		assert.Error(t, err)

		_, err = ParseValue(mustType(t, "uint8"), "300")
		assert.Error(t, err)
	})
	t.Run("addresses", func(t *testing.T) {
		v, err := ParseValue(mustType(t, "address"), "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"), v)

		_, err = ParseValue(mustType(t, "address"), "0x1234")
		assert.Error(t, err)
	})
	t.Run("booleans and bytes", func(t *testing.T) {
		v, err := ParseValue(mustType(t, "bool"), "true")
		require.NoError(t, err)
		assert.Equal(t, true, v)

		v, err = ParseValue(mustType(t, "bytes4"), "0xdeadbeef")
		require.NoError(t, err)
		assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, v)
	})
	t.Run("topic hashes", func(t *testing.T) {
		hash := crypto.Keccak256Hash([]byte("hello"))
		v, err := ParseValue(mustType(t, "string"), TopicHashPrefix+hash.Hex())
		require.NoError(t, err)
		assert.Equal(t, TopicHash{Type: "string", Hash: hash}, v)

		_, err = ParseValue(mustType(t, "uint256"), TopicHashPrefix+hash.Hex())
		assert.Error(t, err)
	})
}

func Test_CheckSupported(t *testing.T) {
	assert.NoError(t, CheckSupported(mustType(t, "uint256[][3]")))

	err := CheckSupported(abi.Type{T: abi.FixedPointTy})
	require.Error(t, err)
	assert.True(t, errors.Is(err, eventErrors.ErrUnsupportedType))
}
