package ethereum

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// EthereumHexString is a 0x-prefixed hex value exactly as the node returned it.
type EthereumHexString string

func (s EthereumHexString) Value() string {
	return string(s)
}

// EthereumQuantity is a hex-encoded unsigned quantity (e.g. "0x1b4").
type EthereumQuantity uint64

func (q *EthereumQuantity) UnmarshalJSON(data []byte) error {
	v, err := ParseQuantity(data)
	if err != nil {
		return err
	}
	*q = EthereumQuantity(v)
	return nil
}

func (q EthereumQuantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(hexutil.EncodeUint64(uint64(q)))
}

// Value returns the quantity, or 0 for a nil pointer (e.g. the block number of a
// pending log).
func (q *EthereumQuantity) Value() uint64 {
	if q == nil {
		return 0
	}
	return uint64(*q)
}

// EthereumEventLog is a log record as returned by eth_getLogs. Block and transaction
// fields are null for pending logs.
type EthereumEventLog struct {
	Address          EthereumHexString   `json:"address"`
	Topics           []EthereumHexString `json:"topics"`
	Data             EthereumHexString   `json:"data"`
	BlockNumber      *EthereumQuantity   `json:"blockNumber"`
	BlockHash        *EthereumHexString  `json:"blockHash"`
	TransactionHash  *EthereumHexString  `json:"transactionHash"`
	TransactionIndex *EthereumQuantity   `json:"transactionIndex"`
	LogIndex         *EthereumQuantity   `json:"logIndex"`
	Removed          *bool               `json:"removed,omitempty"`
}

// TopicHashes decodes the topics. Every topic must be exactly 32 bytes.
func (l *EthereumEventLog) TopicHashes() ([]common.Hash, error) {
	hashes := make([]common.Hash, len(l.Topics))
	for i, topic := range l.Topics {
		b, err := hexutil.Decode(topic.Value())
		if err != nil {
			return nil, errors.Wrapf(err, "invalid topic %d '%s'", i, topic)
		}
		if len(b) != common.HashLength {
			return nil, errors.Errorf("topic %d has %d bytes, expected %d", i, len(b), common.HashLength)
		}
		hashes[i] = common.BytesToHash(b)
	}
	return hashes, nil
}

// DataBytes decodes the data payload. An empty payload may be sent as "0x" or "".
func (l *EthereumEventLog) DataBytes() ([]byte, error) {
	if l.Data == "" {
		return []byte{}, nil
	}
	b, err := hexutil.Decode(l.Data.Value())
	if err != nil {
		return nil, errors.Wrap(err, "invalid log data")
	}
	return b, nil
}
