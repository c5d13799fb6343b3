package cmd

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Layr-Labs/logscope/internal/config"
	"github.com/Layr-Labs/logscope/pkg/clients/ethereum"
	"github.com/Layr-Labs/logscope/pkg/logger"
	"github.com/Layr-Labs/logscope/pkg/metrics"
	"github.com/Layr-Labs/logscope/pkg/metrics/prometheus"
	"go.uber.org/zap"
)

// commandRuntime holds the collaborators every node-facing command needs.
type commandRuntime struct {
	cfg      *config.Config
	logger   *zap.Logger
	client   *ethereum.Client
	sink     *metrics.MetricsSink
	promChan chan bool
}

func newRuntime() *commandRuntime {
	cfg := config.NewConfig()

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if err := cfg.ValidateRpc(); err != nil {
		l.Sugar().Fatalw("Invalid configuration", zap.Error(err))
	}

	metricsClients, err := metrics.InitMetricsSinksFromConfig(cfg, l)
	if err != nil {
		l.Sugar().Fatalw("Failed to setup metrics sink", zap.Error(err))
	}

	sink, err := metrics.NewMetricsSink(&metrics.MetricsSinkConfig{}, metricsClients)
	if err != nil {
		l.Sugar().Fatalw("Failed to setup metrics sink", zap.Error(err))
	}

	client := ethereum.NewClient(ethereum.ConvertGlobalConfigToEthereumConfig(&cfg.EthereumRpcConfig), l)
	client.SetMetricsClient(sink)

	return &commandRuntime{
		cfg:    cfg,
		logger: l,
		client: client,
		sink:   sink,
	}
}

// startPrometheus serves /metrics when enabled in the config.
func (r *commandRuntime) startPrometheus() {
	if !r.cfg.PrometheusConfig.Enabled {
		return
	}
	r.promChan = make(chan bool)
	pServer := prometheus.NewPrometheusServer(&prometheus.PrometheusServerConfig{
		Port: r.cfg.PrometheusConfig.Port,
	}, r.logger)
	if err := pServer.Start(r.promChan); err != nil {
		r.logger.Sugar().Fatalw("Failed to start prometheus server", zap.Error(err))
	}
}

func (r *commandRuntime) close() {
	if r.promChan != nil {
		close(r.promChan)
	}
	r.sink.Flush()
	_ = r.logger.Sync()
}

// shutdownContext is cancelled on SIGINT or SIGTERM.
func shutdownContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
