// Package logWatcher follows the chain head and delivers newly confirmed logs.
package logWatcher

import (
	"context"
	"sync"
	"time"

	"github.com/Layr-Labs/logscope/internal/config"
	"github.com/Layr-Labs/logscope/pkg/actions"
	"github.com/Layr-Labs/logscope/pkg/fetcher"
	"github.com/Layr-Labs/logscope/pkg/metrics/metricsTypes"
	"github.com/Layr-Labs/logscope/pkg/parser"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type LogWatcherConfig struct {
	PollInterval time.Duration
	// Confirmations is the number of blocks a log must be buried under before delivery.
	Confirmations uint64
	// StartBlock is the first block to deliver. When nil, watching starts after the
	// confirmed head at the first poll.
	StartBlock *uint64
}

func ConvertGlobalConfigToWatcherConfig(cfg *config.WatcherConfig) *LogWatcherConfig {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = config.DefaultWatcherPollInterval
	}
	return &LogWatcherConfig{
		PollInterval:  pollInterval,
		Confirmations: cfg.Confirmations,
	}
}

type ChainHeadReader interface {
	GetBlockNumber(ctx context.Context) (uint64, error)
}

type RangeFetcher interface {
	FetchLogs(ctx context.Context, params *actions.GetLogsParams, startBlockInclusive uint64, endBlockInclusive uint64) ([]*parser.DecodedLog, error)
}

// LogHandler receives the logs of one confirmed block range, in block order. The
// range is delivered even when it holds no logs. Returning an error stops the watcher.
type LogHandler func(ctx context.Context, blockRange fetcher.BlockRange, logs []*parser.DecodedLog) error

type LogWatcher struct {
	chain   ChainHeadReader
	fetcher RangeFetcher
	params  *actions.GetLogsParams
	config  *LogWatcherConfig
	logger  *zap.Logger
	metrics metricsTypes.IMetricsClient

	mu                 sync.RWMutex
	nextBlock          uint64
	started            bool
	lastProcessedBlock *uint64
}

// NewLogWatcher watches for logs matching params, which must not set a block range or
// block hash.
func NewLogWatcher(chain ChainHeadReader, f RangeFetcher, params *actions.GetLogsParams, cfg *LogWatcherConfig, l *zap.Logger) *LogWatcher {
	w := &LogWatcher{
		chain:   chain,
		fetcher: f,
		params:  params,
		config:  cfg,
		logger:  l,
	}
	if cfg.StartBlock != nil {
		w.nextBlock = *cfg.StartBlock
		w.started = true
	}
	return w
}

func (w *LogWatcher) SetMetricsClient(m metricsTypes.IMetricsClient) {
	w.metrics = m
}

// LastProcessedBlock returns the last block delivered to the handler.
func (w *LogWatcher) LastProcessedBlock() (uint64, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.lastProcessedBlock == nil {
		return 0, false
	}
	return *w.lastProcessedBlock, true
}

// Run polls until ctx is cancelled, which is a clean stop. Failed polls are logged and
// retried on the next tick. A handler error stops the watcher and is returned.
func (w *LogWatcher) Run(ctx context.Context, handler LogHandler) error {
	w.logger.Sugar().Infow("Starting log watcher",
		zap.Duration("pollInterval", w.config.PollInterval),
		zap.Uint64("confirmations", w.config.Confirmations),
	)
	for {
		if err := w.Poll(ctx, handler); err != nil {
			var he *handlerError
			if errors.As(err, &he) {
				return he.err
			}
			if ctx.Err() == nil {
				w.logger.Sugar().Errorw("Failed to poll for logs", zap.Error(err))
			}
		}

		select {
		case <-ctx.Done():
			w.logger.Sugar().Infow("Stopping log watcher")
			return nil
		case <-time.After(w.config.PollInterval):
		}
	}
}

type handlerError struct {
	err error
}

func (e *handlerError) Error() string { return e.err.Error() }
func (e *handlerError) Unwrap() error { return e.err }

// Poll delivers the logs between the last processed block and the confirmed head.
func (w *LogWatcher) Poll(ctx context.Context, handler LogHandler) error {
	head, err := w.chain.GetBlockNumber(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get chain head")
	}
	w.gauge(metricsTypes.Metric_Gauge_ChainHead, head)

	if head < w.config.Confirmations {
		return nil
	}
	safeBlock := head - w.config.Confirmations

	w.mu.Lock()
	if !w.started {
		w.nextBlock = safeBlock + 1
		w.started = true
	}
	from := w.nextBlock
	w.mu.Unlock()

	if safeBlock < from {
		return nil
	}

	logs, err := w.fetcher.FetchLogs(ctx, w.params, from, safeBlock)
	if err != nil {
		return errors.Wrapf(err, "failed to fetch logs for blocks %d-%d", from, safeBlock)
	}

	w.logger.Sugar().Debugw("Delivering logs",
		zap.Uint64("fromBlock", from),
		zap.Uint64("toBlock", safeBlock),
		zap.Int("count", len(logs)),
	)
	if err := handler(ctx, fetcher.BlockRange{Start: from, End: safeBlock}, logs); err != nil {
		return &handlerError{err: err}
	}

	w.mu.Lock()
	w.nextBlock = safeBlock + 1
	processed := safeBlock
	w.lastProcessedBlock = &processed
	w.mu.Unlock()
	w.gauge(metricsTypes.Metric_Gauge_LastProcessedBlock, safeBlock)
	return nil
}

func (w *LogWatcher) gauge(name string, value uint64) {
	if w.metrics == nil {
		return
	}
	_ = w.metrics.Gauge(name, float64(value), nil)
}
