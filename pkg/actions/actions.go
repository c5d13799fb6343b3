// Package actions exposes the node queries callers use: GetLogs with typed event
// decoding, plus thin pass-throughs for account and test-node methods.
//
// PublicActions holds no per-call state and may be shared between goroutines. Every
// call makes exactly one request; retries, timeouts and rate limiting are the
// Requester's concern.
package actions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Layr-Labs/logscope/pkg/clients/ethereum"
	"github.com/Layr-Labs/logscope/pkg/eventAbi"
	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/Layr-Labs/logscope/pkg/logDecoder"
	"github.com/Layr-Labs/logscope/pkg/metrics/metricsTypes"
	"github.com/Layr-Labs/logscope/pkg/parser"
	"github.com/Layr-Labs/logscope/pkg/topicFilter"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Requester sends a single JSON-RPC request. *ethereum.Client implements it.
type Requester interface {
	Request(ctx context.Context, method string, params []interface{}) (json.RawMessage, error)
}

type PublicActions struct {
	requester Requester
	decoder   *logDecoder.Decoder
	logger    *zap.Logger
	metrics   metricsTypes.IMetricsClient
}

func NewPublicActions(r Requester, l *zap.Logger) *PublicActions {
	return &PublicActions{
		requester: r,
		decoder:   logDecoder.NewLogDecoder(l),
		logger:    l,
	}
}

func (a *PublicActions) SetMetricsClient(m metricsTypes.IMetricsClient) {
	a.metrics = m
}

// GetLogsParams selects the logs to fetch. A block range (FromBlock, ToBlock) and
// BlockHash are mutually exclusive. Args may only be set together with Event.
type GetLogsParams struct {
	Address   []common.Address
	Event     *eventAbi.EventDescription
	Args      topicFilter.ArgumentConstraints
	FromBlock *BlockIdentifier
	ToBlock   *BlockIdentifier
	BlockHash *common.Hash
}

// LogFilter is the filter object sent with eth_getLogs.
type LogFilter struct {
	Address   interface{}             `json:"address,omitempty"`
	Topics    topicFilter.TopicFilter `json:"topics,omitempty"`
	FromBlock string                  `json:"fromBlock,omitempty"`
	ToBlock   string                  `json:"toBlock,omitempty"`
	BlockHash *common.Hash            `json:"blockHash,omitempty"`
}

// Validate checks the parameters without building topics.
func (p *GetLogsParams) Validate() error {
	if p.BlockHash != nil && (p.FromBlock != nil || p.ToBlock != nil) {
		return eventErrors.NewValidationError("blockHash", "cannot be combined with fromBlock or toBlock")
	}
	if p.FromBlock != nil {
		if err := p.FromBlock.validate("fromBlock"); err != nil {
			return err
		}
	}
	if p.ToBlock != nil {
		if err := p.ToBlock.validate("toBlock"); err != nil {
			return err
		}
	}
	from, fromOk := p.FromBlock.Uint64()
	to, toOk := p.ToBlock.Uint64()
	if fromOk && toOk && from > to {
		return eventErrors.NewValidationError("fromBlock", "%d is after toBlock %d", from, to)
	}
	if p.Event == nil && len(p.Args) > 0 {
		return eventErrors.NewValidationError("args", "argument constraints require an event")
	}
	return nil
}

// Filter validates the parameters and returns the eth_getLogs filter object.
func (p *GetLogsParams) Filter() (*LogFilter, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	topics, err := topicFilter.BuildTopics(p.Event, p.Args)
	if err != nil {
		return nil, err
	}

	filter := &LogFilter{
		Topics:    topics,
		BlockHash: p.BlockHash,
	}
	switch len(p.Address) {
	case 0:
	case 1:
		filter.Address = p.Address[0]
	default:
		filter.Address = p.Address
	}
	if p.FromBlock != nil {
		filter.FromBlock = p.FromBlock.Param()
	}
	if p.ToBlock != nil {
		filter.ToBlock = p.ToBlock.Param()
	}
	return filter, nil
}

func (p *GetLogsParams) eventName() string {
	if p.Event == nil {
		return ""
	}
	return p.Event.Name
}

// GetLogs fetches the logs matching params with one eth_getLogs request. When an
// event is given, every record is decoded against it; a record that fails to decode is
// returned raw with DecodeError set. Records keep the order the node returned them in.
// Transport errors are returned unchanged.
func (a *PublicActions) GetLogs(ctx context.Context, params *GetLogsParams) ([]*parser.DecodedLog, error) {
	filter, err := params.Filter()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	logs, err := ethereum.Call(ctx, a.requester, ethereum.RPCMethod_GetLogs, filter)
	a.timing(params.eventName(), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	a.logger.Sugar().Debugw("Fetched logs",
		zap.String("event", params.eventName()),
		zap.String("fromBlock", filter.FromBlock),
		zap.String("toBlock", filter.ToBlock),
		zap.Int("count", len(logs)),
	)

	decoded := a.decoder.DecodeLogs(logs, params.Event)
	a.recordDecoded(params.eventName(), decoded)
	return decoded, nil
}

// GetTransactionCount returns the nonce of address at block, "latest" when block is nil.
func (a *PublicActions) GetTransactionCount(ctx context.Context, address common.Address, block *BlockIdentifier) (uint64, error) {
	if block == nil {
		block = Tag(BlockTag_Latest)
	}
	if err := block.validate("block"); err != nil {
		return 0, err
	}
	return ethereum.Call(ctx, a.requester, ethereum.RPCMethod_GetTransactionCount, address, block.Param())
}

func (a *PublicActions) GetBlockNumber(ctx context.Context) (uint64, error) {
	return ethereum.Call(ctx, a.requester, ethereum.RPCMethod_BlockNumber)
}

func (a *PublicActions) timing(event string, d time.Duration, err error) {
	if a.metrics == nil {
		return
	}
	hasError := "false"
	if err != nil {
		hasError = "true"
	}
	_ = a.metrics.Timing(metricsTypes.Metric_Timing_GetLogsDuration, d, []metricsTypes.MetricsLabel{
		{Name: "event", Value: event},
		{Name: "hasError", Value: hasError},
	})
}

func (a *PublicActions) recordDecoded(event string, decoded []*parser.DecodedLog) {
	if a.metrics == nil {
		return
	}
	_ = a.metrics.Incr(metricsTypes.Metric_Incr_LogsFetched, []metricsTypes.MetricsLabel{{Name: "event", Value: event}}, float64(len(decoded)))
	for _, d := range decoded {
		if d.DecodeError == nil {
			continue
		}
		_ = a.metrics.Incr(metricsTypes.Metric_Incr_LogDecodeFailed, []metricsTypes.MetricsLabel{
			{Name: "event", Value: event},
			{Name: "kind", Value: decodeFailureKind(d.DecodeError)},
		}, 1)
	}
}

func decodeFailureKind(err error) string {
	var de *eventErrors.DecodeError
	if errors.As(err, &de) {
		return string(de.Kind)
	}
	return "mismatch"
}
