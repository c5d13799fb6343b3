package metricsTypes

import "time"

type IMetricsClient interface {
	Incr(name string, labels []MetricsLabel, value float64) error
	Gauge(name string, value float64, labels []MetricsLabel) error
	Timing(name string, value time.Duration, labels []MetricsLabel) error
	Flush()
}

type MetricsLabel struct {
	Name  string
	Value string
}

type MetricsType string

var (
	MetricsType_Incr   MetricsType = "incr"
	MetricsType_Gauge  MetricsType = "gauge"
	MetricsType_Timing MetricsType = "timing"
)

type MetricsTypeConfig struct {
	Name   string
	Help   string
	Labels []string
}

var (
	Metric_Incr_RpcRequest      = "logscope_rpc_requests_total"
	Metric_Incr_RpcRetry        = "logscope_rpc_retries_total"
	Metric_Incr_LogsFetched     = "logscope_logs_fetched_total"
	Metric_Incr_LogDecodeFailed = "logscope_log_decode_failures_total"

	Metric_Gauge_ChainHead          = "logscope_watcher_chain_head"
	Metric_Gauge_LastProcessedBlock = "logscope_watcher_last_processed_block"

	Metric_Timing_RpcDuration     = "logscope_rpc_duration_ms"
	Metric_Timing_GetLogsDuration = "logscope_get_logs_duration_ms"
)

var MetricTypes = map[MetricsType][]MetricsTypeConfig{
	MetricsType_Incr: {
		MetricsTypeConfig{
			Name: Metric_Incr_RpcRequest,
			Help: "JSON-RPC requests sent to the node",
			Labels: []string{
				"method",
				"status",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Incr_RpcRetry,
			Help: "JSON-RPC requests retried after a transient failure",
			Labels: []string{
				"method",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Incr_LogsFetched,
			Help: "Log records returned by eth_getLogs",
			Labels: []string{
				"event",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Incr_LogDecodeFailed,
			Help: "Log records that could not be decoded",
			Labels: []string{
				"event",
				"kind",
			},
		},
	},
	MetricsType_Gauge: {
		MetricsTypeConfig{
			Name:   Metric_Gauge_ChainHead,
			Help:   "Latest block number reported by the node",
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Gauge_LastProcessedBlock,
			Help:   "Last block whose logs were delivered by the watcher",
			Labels: []string{},
		},
	},
	MetricsType_Timing: {
		MetricsTypeConfig{
			Name: Metric_Timing_RpcDuration,
			Help: "JSON-RPC round trip time in milliseconds",
			Labels: []string{
				"method",
				"status",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Timing_GetLogsDuration,
			Help: "Time to fetch and decode one eth_getLogs query in milliseconds",
			Labels: []string{
				"event",
				"hasError",
			},
		},
	},
}
