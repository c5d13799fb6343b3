package cmd

import (
	"os"
	"strings"

	"github.com/Layr-Labs/logscope/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "logscope",
	Short: "logscope queries and decodes contract event logs from an Ethereum node",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	initConfig(rootCmd)

	rootCmd.PersistentFlags().Bool(config.Debug, false, `"true" or "false"`)

	rootCmd.PersistentFlags().String(config.EthereumRpcUrl, "", `e.g. "http://<hostname>:8545"`)
	rootCmd.PersistentFlags().Duration(config.EthereumRpcTimeout, config.DefaultEthereumRpcTimeout, `Timeout of a single HTTP request to the node`)
	rootCmd.PersistentFlags().Uint64(config.EthereumRpcMaxRetries, config.DefaultEthereumMaxRetries, `Number of retries for transient transport failures`)
	rootCmd.PersistentFlags().Float64(config.EthereumRpcRequestsPerSecond, 0, `Maximum requests per second sent to the node (0 disables the limit)`)

	rootCmd.PersistentFlags().Uint64(config.FetcherChunkSize, config.DefaultFetcherChunkSize, `Number of blocks covered by a single eth_getLogs request`)
	rootCmd.PersistentFlags().Int(config.FetcherConcurrency, config.DefaultFetcherConcurrency, `Number of eth_getLogs requests in flight`)

	rootCmd.PersistentFlags().Duration(config.WatcherPollInterval, config.DefaultWatcherPollInterval, `Interval between chain head polls`)
	rootCmd.PersistentFlags().Uint64(config.WatcherConfirmations, 0, `Number of blocks a log must be buried under before it is delivered`)

	rootCmd.PersistentFlags().Bool(config.PrometheusEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().Int(config.PrometheusPort, config.DefaultPrometheusPort, `The port to run the prometheus server on`)

	// setup sub commands
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(transactionCountCmd)
	rootCmd.AddCommand(increaseTimeCmd)

	// bind any subcommand flags
	addFilterFlags(logsCmd)
	logsCmd.Flags().String(flagFromBlock, "", `First block to search: a number or a tag such as "earliest"`)
	logsCmd.Flags().String(flagToBlock, "", `Last block to search: a number or a tag such as "latest"`)
	logsCmd.Flags().String(flagBlockHash, "", `Only search the block with this hash. Cannot be combined with a block range`)

	addFilterFlags(watchCmd)
	watchCmd.Flags().Uint64(flagFromBlock, 0, `First block to deliver (default: blocks confirmed after startup)`)

	transactionCountCmd.Flags().String(flagAddress, "", `Account address`)
	transactionCountCmd.Flags().String(flagBlock, "latest", `Block number or tag`)

	increaseTimeCmd.Flags().Uint64(flagSeconds, 0, `Number of seconds to advance the node clock by`)

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}

func initConfig(cmd *cobra.Command) {
	viper.SetEnvPrefix(config.ENV_PREFIX)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.AutomaticEnv()
}
