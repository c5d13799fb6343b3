package cmd

import (
	"context"

	"github.com/Layr-Labs/logscope/pkg/actions"
	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/Layr-Labs/logscope/pkg/fetcher"
	"github.com/Layr-Labs/logscope/pkg/parser"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Fetch logs and decode them against an event",
	Run: func(cmd *cobra.Command, args []string) {
		rt := newRuntime()
		defer rt.close()

		ctx, cancel := shutdownContext()
		defer cancel()

		params, err := logsParamsFromFlags(cmd, rt.logger)
		if err != nil {
			rt.logger.Sugar().Fatalw("Invalid logs filter", zap.Error(err))
		}

		pa := actions.NewPublicActions(rt.client, rt.logger)
		pa.SetMetricsClient(rt.sink)
		f := fetcher.NewFetcher(pa, fetcher.ConvertGlobalConfigToFetcherConfig(&rt.cfg.FetcherConfig), rt.logger)

		logs, err := queryLogs(ctx, pa, f, params)
		if err != nil {
			rt.logger.Sugar().Fatalw("Failed to fetch logs", zap.Error(err))
		}

		if err := writeJSON(cmd.OutOrStdout(), logs); err != nil {
			rt.logger.Sugar().Fatalw("Failed to write logs", zap.Error(err))
		}
	},
}

func logsParamsFromFlags(cmd *cobra.Command, l *zap.Logger) (*actions.GetLogsParams, error) {
	in, err := readFilterInput(cmd)
	if err != nil {
		return nil, err
	}
	params, err := in.toParams(l)
	if err != nil {
		return nil, err
	}

	for _, b := range []struct {
		flag   string
		target **actions.BlockIdentifier
	}{
		{flagFromBlock, &params.FromBlock},
		{flagToBlock, &params.ToBlock},
	} {
		value, err := cmd.Flags().GetString(b.flag)
		if err != nil {
			return nil, err
		}
		if value == "" {
			continue
		}
		if *b.target, err = actions.ParseBlockIdentifier(value); err != nil {
			return nil, err
		}
	}

	blockHash, err := cmd.Flags().GetString(flagBlockHash)
	if err != nil {
		return nil, err
	}
	if blockHash != "" {
		b, err := hexutil.Decode(blockHash)
		if err != nil || len(b) != common.HashLength {
			return nil, eventErrors.NewValidationError("blockHash", "invalid block hash '%s'", blockHash)
		}
		h := common.BytesToHash(b)
		params.BlockHash = &h
	}
	return params, params.Validate()
}

// queryLogs sends a single request unless both ends of the range are block numbers
// spanning more than one fetcher chunk.
func queryLogs(ctx context.Context, pa *actions.PublicActions, f *fetcher.Fetcher, params *actions.GetLogsParams) ([]*parser.DecodedLog, error) {
	from, fromOk := params.FromBlock.Uint64()
	to, toOk := params.ToBlock.Uint64()
	if !fromOk || !toOk || to-from < f.FetcherConfig.ChunkSize {
		return pa.GetLogs(ctx, params)
	}

	ranged := *params
	ranged.FromBlock = nil
	ranged.ToBlock = nil
	return f.FetchLogs(ctx, &ranged, from, to)
}
