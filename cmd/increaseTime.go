package cmd

import (
	"github.com/Layr-Labs/logscope/pkg/actions"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var increaseTimeCmd = &cobra.Command{
	Use:   "increase-time",
	Short: "Advance the clock of a development node",
	Run: func(cmd *cobra.Command, args []string) {
		rt := newRuntime()
		defer rt.close()

		ctx, cancel := shutdownContext()
		defer cancel()

		seconds, _ := cmd.Flags().GetUint64(flagSeconds)
		if seconds == 0 {
			rt.logger.Sugar().Fatalw("--seconds must be greater than zero")
		}

		ta := actions.NewTestActions(rt.client, rt.logger)
		offset, err := ta.IncreaseTime(ctx, seconds)
		if err != nil {
			rt.logger.Sugar().Fatalw("Failed to increase time", zap.Error(err))
		}

		_ = writeJSON(cmd.OutOrStdout(), map[string]interface{}{
			"seconds": seconds,
			"offset":  offset,
		})
	},
}
