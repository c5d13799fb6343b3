package ethereum

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

const jsonRpcVersion = "2.0"

type RPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is an error object returned by the node. It is surfaced verbatim.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("rpc error %d: %s (%s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Requester sends a single JSON-RPC request and returns its raw result.
type Requester interface {
	Request(ctx context.Context, method string, params []interface{}) (json.RawMessage, error)
}

// RPCMethod pairs a method name with the parser for its result.
type RPCMethod[T any] struct {
	Name           string
	ResponseParser func(json.RawMessage) (T, error)
}

var (
	RPCMethod_GetLogs = &RPCMethod[[]*EthereumEventLog]{
		Name: "eth_getLogs",
		ResponseParser: func(raw json.RawMessage) ([]*EthereumEventLog, error) {
			logs := make([]*EthereumEventLog, 0)
			if len(raw) == 0 || string(raw) == "null" {
				return logs, nil
			}
			if err := json.Unmarshal(raw, &logs); err != nil {
				return nil, errors.Wrap(err, "failed to parse eth_getLogs result")
			}
			return logs, nil
		},
	}
	RPCMethod_BlockNumber = &RPCMethod[uint64]{
		Name:           "eth_blockNumber",
		ResponseParser: ParseQuantity,
	}
	RPCMethod_GetTransactionCount = &RPCMethod[uint64]{
		Name:           "eth_getTransactionCount",
		ResponseParser: ParseQuantity,
	}
	RPCMethod_IncreaseTime = &RPCMethod[uint64]{
		Name:           "evm_increaseTime",
		ResponseParser: ParseQuantity,
	}
)

// Call sends method through r and parses the result.
func Call[T any](ctx context.Context, r Requester, method *RPCMethod[T], params ...interface{}) (T, error) {
	var empty T
	if params == nil {
		params = []interface{}{}
	}
	raw, err := r.Request(ctx, method.Name, params)
	if err != nil {
		return empty, err
	}
	return method.ResponseParser(raw)
}

// ParseQuantity accepts a hex quantity string ("0x10"), a decimal string ("16") or a
// JSON number. Development nodes disagree on the format of some results.
func ParseQuantity(raw json.RawMessage) (uint64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		base := 10
		digits := s
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			base, digits = 16, s[2:]
		}
		n, ok := new(big.Int).SetString(digits, base)
		if !ok || !n.IsUint64() {
			return 0, errors.Errorf("invalid quantity '%s'", s)
		}
		return n.Uint64(), nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, errors.Wrapf(err, "invalid quantity '%s'", string(raw))
	}
	v, ok := new(big.Int).SetString(n.String(), 10)
	if !ok || !v.IsUint64() {
		return 0, errors.Errorf("invalid quantity '%s'", n.String())
	}
	return v.Uint64(), nil
}
