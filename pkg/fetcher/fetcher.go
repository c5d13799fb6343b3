// Package fetcher retrieves logs for block ranges too large for a single eth_getLogs
// request. The range is split into fixed-size windows that are queried concurrently
// and reassembled in block order.
package fetcher

import (
	"context"

	"github.com/Layr-Labs/logscope/internal/config"
	"github.com/Layr-Labs/logscope/pkg/actions"
	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/Layr-Labs/logscope/pkg/parser"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FetcherConfig contains the configuration specific to the Fetcher
type FetcherConfig struct {
	// ChunkSize is the number of blocks covered by one request
	ChunkSize uint64
	// Concurrency bounds the number of requests in flight
	Concurrency int
}

func ConvertGlobalConfigToFetcherConfig(cfg *config.FetcherConfig) *FetcherConfig {
	fetcherConfig := &FetcherConfig{
		ChunkSize:   cfg.ChunkSize,
		Concurrency: cfg.Concurrency,
	}
	if fetcherConfig.ChunkSize == 0 {
		fetcherConfig.ChunkSize = config.DefaultFetcherChunkSize
	}
	if fetcherConfig.Concurrency <= 0 {
		fetcherConfig.Concurrency = config.DefaultFetcherConcurrency
	}
	return fetcherConfig
}

// LogsQuerier runs a single eth_getLogs query. *actions.PublicActions implements it.
type LogsQuerier interface {
	GetLogs(ctx context.Context, params *actions.GetLogsParams) ([]*parser.DecodedLog, error)
}

type Fetcher struct {
	Actions       LogsQuerier
	Logger        *zap.Logger
	FetcherConfig *FetcherConfig
}

func NewFetcher(a LogsQuerier, cfg *FetcherConfig, l *zap.Logger) *Fetcher {
	l.Sugar().Infow("Created fetcher", zap.Any("config", cfg))
	return &Fetcher{
		Actions:       a,
		Logger:        l,
		FetcherConfig: cfg,
	}
}

// BlockRange is an inclusive range of block numbers.
type BlockRange struct {
	Start uint64
	End   uint64
}

// SplitRange splits [start, end] into consecutive windows of at most chunkSize blocks.
func SplitRange(start uint64, end uint64, chunkSize uint64) []BlockRange {
	if end < start || chunkSize == 0 {
		return []BlockRange{}
	}
	ranges := make([]BlockRange, 0, (end-start)/chunkSize+1)
	for chunkStart := start; ; chunkStart += chunkSize {
		chunkEnd := chunkStart + chunkSize - 1
		if chunkEnd > end || chunkEnd < chunkStart {
			chunkEnd = end
		}
		ranges = append(ranges, BlockRange{Start: chunkStart, End: chunkEnd})
		if chunkEnd == end {
			return ranges
		}
	}
}

// FetchLogs runs params over [startBlockInclusive, endBlockInclusive] one window at a
// time and returns the logs in block order. params must not carry its own block
// range or block hash. The first failing window cancels the others and its error is
// returned.
func (f *Fetcher) FetchLogs(ctx context.Context, params *actions.GetLogsParams, startBlockInclusive uint64, endBlockInclusive uint64) ([]*parser.DecodedLog, error) {
	if params.FromBlock != nil || params.ToBlock != nil || params.BlockHash != nil {
		return nil, eventErrors.NewValidationError("blockRange", "the fetcher sets the block range itself")
	}
	if endBlockInclusive < startBlockInclusive {
		return nil, eventErrors.NewValidationError("blockRange", "end block %d is before start block %d", endBlockInclusive, startBlockInclusive)
	}
	// fail fast on bad filters before fanning out
	if err := params.Validate(); err != nil {
		return nil, err
	}

	ranges := SplitRange(startBlockInclusive, endBlockInclusive, f.FetcherConfig.ChunkSize)
	results := make([][]*parser.DecodedLog, len(ranges))

	requestID := uuid.New().String()
	f.Logger.Sugar().Debugw("Fetching logs for block range",
		zap.String("requestId", requestID),
		zap.Uint64("startBlock", startBlockInclusive),
		zap.Uint64("endBlock", endBlockInclusive),
		zap.Int("chunks", len(ranges)),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(f.FetcherConfig.Concurrency, 1))
	for i, r := range ranges {
		chunkParams := *params
		chunkParams.FromBlock = actions.BlockNumber(r.Start)
		chunkParams.ToBlock = actions.BlockNumber(r.End)

		g.Go(func() error {
			logs, err := f.Actions.GetLogs(ctx, &chunkParams)
			if err != nil {
				f.Logger.Sugar().Errorw("Failed to fetch logs for chunk",
					zap.String("requestId", requestID),
					zap.Uint64("startBlock", r.Start),
					zap.Uint64("endBlock", r.End),
					zap.Error(err),
				)
				return err
			}
			f.Logger.Sugar().Debugw("Fetched logs for chunk",
				zap.String("requestId", requestID),
				zap.Uint64("startBlock", r.Start),
				zap.Uint64("endBlock", r.End),
				zap.Int("count", len(logs)),
			)
			results[i] = logs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, logs := range results {
		total += len(logs)
	}
	collected := make([]*parser.DecodedLog, 0, total)
	for _, logs := range results {
		collected = append(collected, logs...)
	}
	return collected, nil
}
