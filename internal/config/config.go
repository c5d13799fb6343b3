package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "LOGSCOPE"

// Flag names. Nested keys use '.', words use '-'; both become '_' in env vars
// (e.g. LOGSCOPE_ETHEREUM_RPC_URL).
const (
	Debug = "debug"

	EthereumRpcUrl               = "ethereum.rpc-url"
	EthereumRpcTimeout           = "ethereum.timeout"
	EthereumRpcMaxRetries        = "ethereum.max-retries"
	EthereumRpcRequestsPerSecond = "ethereum.requests-per-second"

	FetcherChunkSize   = "fetcher.chunk-size"
	FetcherConcurrency = "fetcher.concurrency"

	WatcherPollInterval  = "watcher.poll-interval"
	WatcherConfirmations = "watcher.confirmations"

	PrometheusEnabled = "prometheus.enabled"
	PrometheusPort    = "prometheus.port"
)

const (
	DefaultEthereumRpcTimeout  = 30 * time.Second
	DefaultEthereumMaxRetries  = 5
	DefaultFetcherChunkSize    = 2000
	DefaultFetcherConcurrency  = 4
	DefaultWatcherPollInterval = 12 * time.Second
	DefaultPrometheusPort      = 2112
)

type Config struct {
	Debug             bool
	EthereumRpcConfig EthereumRpcConfig
	FetcherConfig     FetcherConfig
	WatcherConfig     WatcherConfig
	PrometheusConfig  PrometheusConfig
}

type EthereumRpcConfig struct {
	BaseUrl    string
	Timeout    time.Duration
	MaxRetries uint64
	// RequestsPerSecond of 0 disables rate limiting.
	RequestsPerSecond float64
}

type FetcherConfig struct {
	ChunkSize   uint64
	Concurrency int
}

type WatcherConfig struct {
	PollInterval  time.Duration
	Confirmations uint64
}

type PrometheusConfig struct {
	Enabled bool
	Port    int
}

func NewConfig() *Config {
	return &Config{
		Debug: viper.GetBool(normalizeFlagName(Debug)),

		EthereumRpcConfig: EthereumRpcConfig{
			BaseUrl:           viper.GetString(normalizeFlagName(EthereumRpcUrl)),
			Timeout:           durationOrDefault(viper.GetDuration(normalizeFlagName(EthereumRpcTimeout)), DefaultEthereumRpcTimeout),
			MaxRetries:        viper.GetUint64(normalizeFlagName(EthereumRpcMaxRetries)),
			RequestsPerSecond: viper.GetFloat64(normalizeFlagName(EthereumRpcRequestsPerSecond)),
		},

		FetcherConfig: FetcherConfig{
			ChunkSize:   viper.GetUint64(normalizeFlagName(FetcherChunkSize)),
			Concurrency: viper.GetInt(normalizeFlagName(FetcherConcurrency)),
		},

		WatcherConfig: WatcherConfig{
			PollInterval:  durationOrDefault(viper.GetDuration(normalizeFlagName(WatcherPollInterval)), DefaultWatcherPollInterval),
			Confirmations: viper.GetUint64(normalizeFlagName(WatcherConfirmations)),
		},

		PrometheusConfig: PrometheusConfig{
			Enabled: viper.GetBool(normalizeFlagName(PrometheusEnabled)),
			Port:    viper.GetInt(normalizeFlagName(PrometheusPort)),
		},
	}
}

// ValidateRpc checks the settings every command talking to a node needs.
func (c *Config) ValidateRpc() error {
	if c.EthereumRpcConfig.BaseUrl == "" {
		return errors.Errorf("%s is required", EthereumRpcUrl)
	}
	if c.EthereumRpcConfig.RequestsPerSecond < 0 {
		return errors.Errorf("%s must not be negative", EthereumRpcRequestsPerSecond)
	}
	return nil
}

func durationOrDefault(d time.Duration, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func KebabToSnakeCase(str string) string {
	return strings.ReplaceAll(str, "-", "_")
}

func normalizeFlagName(name string) string {
	return KebabToSnakeCase(name)
}
