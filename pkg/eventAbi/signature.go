package eventAbi

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// CanonicalType returns the type as it appears in an event signature: explicit integer
// widths, tuples expanded to "(t1,t2)" and array suffixes appended.
func CanonicalType(t abi.Type) string {
	switch t.T {
	case abi.IntTy:
		return fmt.Sprintf("int%d", t.Size)
	case abi.UintTy:
		return fmt.Sprintf("uint%d", t.Size)
	case abi.SliceTy:
		return CanonicalType(*t.Elem) + "[]"
	case abi.ArrayTy:
		return fmt.Sprintf("%s[%d]", CanonicalType(*t.Elem), t.Size)
	case abi.TupleTy:
		elems := make([]string, len(t.TupleElems))
		for i, elem := range t.TupleElems {
			elems[i] = CanonicalType(*elem)
		}
		return "(" + strings.Join(elems, ",") + ")"
	}
	return t.String()
}

// Signature returns the canonical signature, e.g. "Transfer(address,address,uint256)".
func (e *EventDescription) Signature() string {
	types := make([]string, len(e.Parameters))
	for i, p := range e.Parameters {
		types[i] = CanonicalType(p.Type)
	}
	return fmt.Sprintf("%s(%s)", e.Name, strings.Join(types, ","))
}

// SignatureHash is the keccak256 digest of Signature, carried in topic 0 by
// non-anonymous events.
func (e *EventDescription) SignatureHash() common.Hash {
	return crypto.Keccak256Hash([]byte(e.Signature()))
}
