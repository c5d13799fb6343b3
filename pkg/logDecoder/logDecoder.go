// Package logDecoder turns raw log records back into typed event arguments using the
// event description the caller queried with.
package logDecoder

import (
	"fmt"

	"github.com/Layr-Labs/logscope/pkg/abiCodec"
	"github.com/Layr-Labs/logscope/pkg/clients/ethereum"
	"github.com/Layr-Labs/logscope/pkg/eventAbi"
	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/Layr-Labs/logscope/pkg/parser"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// DecodeLog decodes lg as an occurrence of event.
//
// It returns a *eventErrors.MismatchError when topic 0 is not the event's signature
// hash, and a *eventErrors.DecodeError when the topics or the data payload do not fit
// the declared parameters. Indexed string, bytes, array and tuple parameters decode to
// an abiCodec.TopicHash.
func DecodeLog(lg *ethereum.EthereumEventLog, event *eventAbi.EventDescription) (*parser.DecodedLog, error) {
	topics, err := lg.TopicHashes()
	if err != nil {
		return nil, eventErrors.NewMalformedError("", "%v", err)
	}

	if !event.Anonymous {
		expected := event.SignatureHash()
		if len(topics) == 0 {
			return nil, &eventErrors.MismatchError{EventName: event.Name, Expected: expected, RecordIndex: -1}
		}
		if topics[0] != expected {
			actual := topics[0]
			return nil, &eventErrors.MismatchError{EventName: event.Name, Expected: expected, Actual: &actual, RecordIndex: -1}
		}
		topics = topics[1:]
	}

	indexed := event.IndexedParameters()
	if len(topics) != len(indexed) {
		return nil, &eventErrors.DecodeError{
			Kind:        eventErrors.DecodeErrorKind_TopicsMismatch,
			RecordIndex: -1,
			Message:     fmt.Sprintf("event '%s' has %d indexed parameters, log has %d topics", event.Name, len(indexed), len(topics)),
		}
	}

	data, err := lg.DataBytes()
	if err != nil {
		return nil, eventErrors.NewMalformedError("", "%v", err)
	}
	dataValues, err := abiCodec.DecodeTuple(event.DataTypes(), data)
	if err != nil {
		return nil, err
	}

	arguments := make([]parser.Argument, len(event.Parameters))
	topicIdx, dataIdx := 0, 0
	for i, p := range event.Parameters {
		var value interface{}
		switch p.Kind() {
		case eventAbi.ParameterKind_IndexedValue, eventAbi.ParameterKind_IndexedHash:
			value, err = decodeTopic(p, topics[topicIdx])
			if err != nil {
				return nil, err
			}
			topicIdx++
		case eventAbi.ParameterKind_Data:
			value = dataValues[dataIdx]
			dataIdx++
		}
		arguments[i] = parser.Argument{
			Name:    p.Name,
			Type:    eventAbi.CanonicalType(p.Type),
			Value:   value,
			Indexed: p.Indexed,
		}
	}

	return &parser.DecodedLog{
		Log:       lg,
		EventName: event.Name,
		Arguments: arguments,
		Args:      parser.BuildArgs(arguments),
	}, nil
}

func decodeTopic(p eventAbi.Parameter, topic common.Hash) (interface{}, error) {
	value, err := abiCodec.DecodeTopic(p.Type, topic)
	if err != nil {
		if de, ok := err.(*eventErrors.DecodeError); ok {
			de.Parameter = p.Name
		}
		return nil, err
	}
	return value, nil
}

// Decoder decodes batches of records, isolating failures to the record they occur in.
type Decoder struct {
	logger *zap.Logger
}

func NewLogDecoder(l *zap.Logger) *Decoder {
	return &Decoder{logger: l}
}

// DecodeLogs decodes every record against event and preserves their order. A record
// that cannot be decoded is returned raw with DecodeError set; its siblings are
// unaffected. A nil event returns every record raw.
func (d *Decoder) DecodeLogs(logs []*ethereum.EthereumEventLog, event *eventAbi.EventDescription) []*parser.DecodedLog {
	decoded := make([]*parser.DecodedLog, len(logs))
	for i, lg := range logs {
		if event == nil {
			decoded[i] = parser.NewRawLog(lg)
			continue
		}
		decoded[i] = d.DecodeLog(i, lg, event)
	}
	return decoded
}

// DecodeLog decodes a single record found at position index of a response.
func (d *Decoder) DecodeLog(index int, lg *ethereum.EthereumEventLog, event *eventAbi.EventDescription) *parser.DecodedLog {
	decodedLog, err := DecodeLog(lg, event)
	if err != nil {
		err = eventErrors.WithRecordIndex(err, index)
		d.logger.Sugar().Debugw(fmt.Sprintf("Failed to decode log - index: '%d'", index),
			zap.String("event", event.Name),
			zap.String("logAddress", lg.Address.Value()),
			zap.Uint64("blockNumber", lg.BlockNumber.Value()),
			zap.Uint64("logIndex", lg.LogIndex.Value()),
			zap.Error(err),
		)
		raw := parser.NewRawLog(lg)
		raw.DecodeError = err
		return raw
	}
	return decodedLog
}
