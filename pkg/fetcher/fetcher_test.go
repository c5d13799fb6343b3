package fetcher

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Layr-Labs/logscope/internal/config"
	"github.com/Layr-Labs/logscope/pkg/actions"
	"github.com/Layr-Labs/logscope/pkg/clients/ethereum"
	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/Layr-Labs/logscope/pkg/logger"
	"github.com/Layr-Labs/logscope/pkg/parser"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeQuerier returns one log per block of the requested window.
type fakeQuerier struct {
	mu       sync.Mutex
	windows  []BlockRange
	inFlight atomic.Int32
	peak     atomic.Int32
	failAt   uint64
}

func (q *fakeQuerier) GetLogs(ctx context.Context, params *actions.GetLogsParams) ([]*parser.DecodedLog, error) {
	start, _ := params.FromBlock.Uint64()
	end, _ := params.ToBlock.Uint64()

	current := q.inFlight.Add(1)
	defer q.inFlight.Add(-1)
	for {
		peak := q.peak.Load()
		if current <= peak || q.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	q.mu.Lock()
	q.windows = append(q.windows, BlockRange{Start: start, End: end})
	q.mu.Unlock()

	// let later windows finish first
	time.Sleep(time.Duration(100-start%100) * 10 * time.Microsecond)

	if q.failAt != 0 && start <= q.failAt && q.failAt <= end {
		return nil, &eventErrors.TransportError{Method: "eth_getLogs", Err: errors.New("query timeout exceeded")}
	}

	logs := make([]*parser.DecodedLog, 0)
	for b := start; b <= end; b++ {
		blockNumber := ethereum.EthereumQuantity(b)
		logs = append(logs, parser.NewRawLog(&ethereum.EthereumEventLog{BlockNumber: &blockNumber}))
	}
	return logs, nil
}

func newTestLogger(t *testing.T) *zap.Logger {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.Nil(t, err)
	return l
}

func Test_SplitRange(t *testing.T) {
	assert.Equal(t, []BlockRange{{0, 9}, {10, 19}, {20, 25}}, SplitRange(0, 25, 10))
	assert.Equal(t, []BlockRange{{5, 5}}, SplitRange(5, 5, 10))
	assert.Equal(t, []BlockRange{{1, 10}}, SplitRange(1, 10, 10))
	assert.Equal(t, []BlockRange{}, SplitRange(10, 5, 10))
	assert.Equal(t, []BlockRange{}, SplitRange(0, 5, 0))

	maxBlock := ^uint64(0)
	assert.Equal(t, []BlockRange{{maxBlock - 4, maxBlock - 2}, {maxBlock - 1, maxBlock}}, SplitRange(maxBlock-4, maxBlock, 3))
}

func Test_Fetcher(t *testing.T) {
	l := newTestLogger(t)

	t.Run("Should fetch every window and keep block order", func(t *testing.T) {
		querier := &fakeQuerier{}
		f := NewFetcher(querier, &FetcherConfig{ChunkSize: 10, Concurrency: 3}, l)

		logs, err := f.FetchLogs(context.Background(), &actions.GetLogsParams{}, 3, 57)
		require.Nil(t, err)
		require.Len(t, logs, 55)
		for i, lg := range logs {
			assert.Equal(t, uint64(3+i), lg.Log.BlockNumber.Value())
		}
		assert.Len(t, querier.windows, 6)
		assert.LessOrEqual(t, querier.peak.Load(), int32(3))
	})
	t.Run("Should return the first failing window's error", func(t *testing.T) {
		querier := &fakeQuerier{failAt: 42}
		f := NewFetcher(querier, &FetcherConfig{ChunkSize: 10, Concurrency: 2}, l)

		_, err := f.FetchLogs(context.Background(), &actions.GetLogsParams{}, 0, 99)
		var transportErr *eventErrors.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, "eth_getLogs", transportErr.Method)
	})
	t.Run("Should reject params carrying their own block range", func(t *testing.T) {
		querier := &fakeQuerier{}
		f := NewFetcher(querier, &FetcherConfig{ChunkSize: 10, Concurrency: 2}, l)

		_, err := f.FetchLogs(context.Background(), &actions.GetLogsParams{FromBlock: actions.BlockNumber(1)}, 0, 10)
		var validationErr *eventErrors.ValidationError
		require.True(t, errors.As(err, &validationErr))

		_, err = f.FetchLogs(context.Background(), &actions.GetLogsParams{}, 10, 0)
		require.True(t, errors.As(err, &validationErr))
		assert.Empty(t, querier.windows)
	})
}

func Test_ConvertGlobalConfigToFetcherConfig(t *testing.T) {
	cfg := ConvertGlobalConfigToFetcherConfig(&config.FetcherConfig{})
	assert.Equal(t, uint64(config.DefaultFetcherChunkSize), cfg.ChunkSize)
	assert.Equal(t, config.DefaultFetcherConcurrency, cfg.Concurrency)

	cfg = ConvertGlobalConfigToFetcherConfig(&config.FetcherConfig{ChunkSize: 500, Concurrency: 8})
	assert.Equal(t, uint64(500), cfg.ChunkSize)
	assert.Equal(t, 8, cfg.Concurrency)
}
