// Package metrics fans metric updates out to every configured metrics client.
package metrics

import (
	"time"

	"github.com/Layr-Labs/logscope/internal/config"
	"github.com/Layr-Labs/logscope/pkg/metrics/metricsTypes"
	"github.com/Layr-Labs/logscope/pkg/metrics/prometheus"
	"go.uber.org/zap"
)

type MetricsSinkConfig struct{}

// MetricsSink implements IMetricsClient over a set of clients. A nil sink, or one
// without clients, accepts and drops every update.
type MetricsSink struct {
	config  *MetricsSinkConfig
	clients []metricsTypes.IMetricsClient
}

func NewMetricsSink(cfg *MetricsSinkConfig, clients []metricsTypes.IMetricsClient) (*MetricsSink, error) {
	return &MetricsSink{
		config:  cfg,
		clients: clients,
	}, nil
}

// InitMetricsSinksFromConfig creates the metrics clients enabled in the config.
func InitMetricsSinksFromConfig(cfg *config.Config, l *zap.Logger) ([]metricsTypes.IMetricsClient, error) {
	clients := make([]metricsTypes.IMetricsClient, 0)

	if cfg.PrometheusConfig.Enabled {
		pc, err := prometheus.NewPrometheusMetricsClient(&prometheus.PrometheusMetricsConfig{
			Metrics: metricsTypes.MetricTypes,
		}, l)
		if err != nil {
			l.Sugar().Errorw("Failed to create Prometheus client", zap.Error(err))
			return nil, err
		}
		clients = append(clients, pc)
	}
	return clients, nil
}

func (ms *MetricsSink) Incr(name string, labels []metricsTypes.MetricsLabel, value float64) error {
	if ms == nil {
		return nil
	}
	var firstErr error
	for _, client := range ms.clients {
		if err := client.Incr(name, labels, value); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (ms *MetricsSink) Gauge(name string, value float64, labels []metricsTypes.MetricsLabel) error {
	if ms == nil {
		return nil
	}
	var firstErr error
	for _, client := range ms.clients {
		if err := client.Gauge(name, value, labels); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (ms *MetricsSink) Timing(name string, value time.Duration, labels []metricsTypes.MetricsLabel) error {
	if ms == nil {
		return nil
	}
	var firstErr error
	for _, client := range ms.clients {
		if err := client.Timing(name, value, labels); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (ms *MetricsSink) Flush() {
	if ms == nil {
		return
	}
	for _, client := range ms.clients {
		client.Flush()
	}
}
