package cmd

import (
	"github.com/Layr-Labs/logscope/pkg/actions"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var transactionCountCmd = &cobra.Command{
	Use:   "transaction-count",
	Short: "Print the number of transactions sent from an account",
	Run: func(cmd *cobra.Command, args []string) {
		rt := newRuntime()
		defer rt.close()

		ctx, cancel := shutdownContext()
		defer cancel()

		address, _ := cmd.Flags().GetString(flagAddress)
		if !common.IsHexAddress(address) {
			rt.logger.Sugar().Fatalw("Invalid address", zap.String("address", address))
		}
		blockFlag, _ := cmd.Flags().GetString(flagBlock)
		block, err := actions.ParseBlockIdentifier(blockFlag)
		if err != nil {
			rt.logger.Sugar().Fatalw("Invalid block", zap.Error(err))
		}

		pa := actions.NewPublicActions(rt.client, rt.logger)
		count, err := pa.GetTransactionCount(ctx, common.HexToAddress(address), block)
		if err != nil {
			rt.logger.Sugar().Fatalw("Failed to get transaction count", zap.Error(err))
		}

		_ = writeJSON(cmd.OutOrStdout(), map[string]interface{}{
			"address":          common.HexToAddress(address),
			"block":            block.Param(),
			"transactionCount": count,
		})
	},
}
