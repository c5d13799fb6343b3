package cmd

import (
	"context"
	"encoding/json"

	"github.com/Layr-Labs/logscope/pkg/actions"
	"github.com/Layr-Labs/logscope/pkg/fetcher"
	"github.com/Layr-Labs/logscope/pkg/logWatcher"
	"github.com/Layr-Labs/logscope/pkg/parser"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the chain and print newly confirmed logs as JSON lines",
	Run: func(cmd *cobra.Command, args []string) {
		rt := newRuntime()
		defer rt.close()

		ctx, cancel := shutdownContext()
		defer cancel()

		in, err := readFilterInput(cmd)
		if err != nil {
			rt.logger.Sugar().Fatalw("Invalid watch filter", zap.Error(err))
		}
		params, err := in.toParams(rt.logger)
		if err != nil {
			rt.logger.Sugar().Fatalw("Invalid watch filter", zap.Error(err))
		}
		if err := params.Validate(); err != nil {
			rt.logger.Sugar().Fatalw("Invalid watch filter", zap.Error(err))
		}

		watcherConfig := logWatcher.ConvertGlobalConfigToWatcherConfig(&rt.cfg.WatcherConfig)
		if cmd.Flags().Changed(flagFromBlock) {
			startBlock, err := cmd.Flags().GetUint64(flagFromBlock)
			if err != nil {
				rt.logger.Sugar().Fatalw("Invalid start block", zap.Error(err))
			}
			watcherConfig.StartBlock = &startBlock
		}

		rt.startPrometheus()

		pa := actions.NewPublicActions(rt.client, rt.logger)
		pa.SetMetricsClient(rt.sink)
		f := fetcher.NewFetcher(pa, fetcher.ConvertGlobalConfigToFetcherConfig(&rt.cfg.FetcherConfig), rt.logger)

		w := logWatcher.NewLogWatcher(pa, f, params, watcherConfig, rt.logger)
		w.SetMetricsClient(rt.sink)

		enc := json.NewEncoder(cmd.OutOrStdout())
		err = w.Run(ctx, func(ctx context.Context, r fetcher.BlockRange, logs []*parser.DecodedLog) error {
			for _, lg := range logs {
				if err := enc.Encode(lg); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			rt.logger.Sugar().Fatalw("Log watcher stopped", zap.Error(err))
		}
	},
}
