// Package ethereum is a JSON-RPC client for Ethereum nodes.
//
// Requests are rate limited and retried with exponential backoff on transient
// failures (network errors, HTTP 429 and 5xx). Errors returned by the node itself
// are never retried and are surfaced verbatim as *RPCError inside a TransportError.
package ethereum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Layr-Labs/logscope/internal/config"
	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/Layr-Labs/logscope/pkg/metrics/metricsTypes"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type EthereumClientConfig struct {
	BaseUrl string
	// Timeout bounds a single HTTP attempt.
	Timeout    time.Duration
	MaxRetries uint64
	// InitialRetryInterval and MaxRetryInterval shape the exponential backoff.
	InitialRetryInterval time.Duration
	MaxRetryInterval     time.Duration
	// RequestsPerSecond of 0 disables rate limiting.
	RequestsPerSecond float64
}

func DefaultEthereumClientConfig() *EthereumClientConfig {
	return &EthereumClientConfig{
		Timeout:              config.DefaultEthereumRpcTimeout,
		MaxRetries:           config.DefaultEthereumMaxRetries,
		InitialRetryInterval: 500 * time.Millisecond,
		MaxRetryInterval:     10 * time.Second,
	}
}

func ConvertGlobalConfigToEthereumConfig(cfg *config.EthereumRpcConfig) *EthereumClientConfig {
	clientConfig := DefaultEthereumClientConfig()
	clientConfig.BaseUrl = cfg.BaseUrl
	if cfg.Timeout > 0 {
		clientConfig.Timeout = cfg.Timeout
	}
	clientConfig.MaxRetries = cfg.MaxRetries
	clientConfig.RequestsPerSecond = cfg.RequestsPerSecond
	return clientConfig
}

type Client struct {
	BaseUrl      string
	Logger       *zap.Logger
	httpClient   *http.Client
	clientConfig *EthereumClientConfig
	limiter      *rate.Limiter
	metrics      metricsTypes.IMetricsClient
	requestId    atomic.Uint64
}

func NewClient(cfg *EthereumClientConfig, l *zap.Logger) *Client {
	l.Sugar().Debugw("Creating new Ethereum client",
		zap.String("baseUrl", cfg.BaseUrl),
		zap.Duration("timeout", cfg.Timeout),
		zap.Uint64("maxRetries", cfg.MaxRetries),
		zap.Float64("requestsPerSecond", cfg.RequestsPerSecond),
	)

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		BaseUrl:      cfg.BaseUrl,
		Logger:       l,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		clientConfig: cfg,
		limiter:      limiter,
	}
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) SetMetricsClient(m metricsTypes.IMetricsClient) {
	c.metrics = m
}

// retryableError marks failures worth another attempt.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Request sends one JSON-RPC request and returns the raw result. Any failure is
// returned as a *eventErrors.TransportError.
func (c *Client) Request(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &eventErrors.TransportError{Method: method, Err: err}
		}
	}

	body, err := json.Marshal(&RPCRequest{
		JSONRPC: jsonRpcVersion,
		Method:  method,
		Params:  params,
		ID:      c.requestId.Add(1),
	})
	if err != nil {
		return nil, &eventErrors.TransportError{Method: method, Err: errors.Wrap(err, "failed to marshal request")}
	}

	start := time.Now()
	operation := func() (json.RawMessage, error) {
		result, err := c.send(ctx, body)
		if err == nil {
			return result, nil
		}
		var retryable *retryableError
		if errors.As(err, &retryable) && ctx.Err() == nil {
			return nil, retryable.err
		}
		return nil, backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		c.Logger.Sugar().Debugw("Retrying rpc request",
			zap.String("method", method),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		c.incr(metricsTypes.Metric_Incr_RpcRetry, []metricsTypes.MetricsLabel{{Name: "method", Value: method}})
	}

	result, err := backoff.RetryNotifyWithData(operation, c.newBackOff(ctx), notify)

	status := "ok"
	if err != nil {
		status = "error"
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			status = "rpc_error"
		}
		c.Logger.Sugar().Debugw("Rpc request failed",
			zap.String("method", method),
			zap.Error(err),
		)
	}
	labels := []metricsTypes.MetricsLabel{{Name: "method", Value: method}, {Name: "status", Value: status}}
	c.incr(metricsTypes.Metric_Incr_RpcRequest, labels)
	if c.metrics != nil {
		_ = c.metrics.Timing(metricsTypes.Metric_Timing_RpcDuration, time.Since(start), labels)
	}

	if err != nil {
		return nil, &eventErrors.TransportError{Method: method, Err: err}
	}
	return result, nil
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if c.clientConfig.InitialRetryInterval > 0 {
		b.InitialInterval = c.clientConfig.InitialRetryInterval
	}
	if c.clientConfig.MaxRetryInterval > 0 {
		b.MaxInterval = c.clientConfig.MaxRetryInterval
	}
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, c.clientConfig.MaxRetries), ctx)
}

func (c *Client) send(ctx context.Context, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseUrl, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &retryableError{err: err}
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &retryableError{err: errors.Wrap(err, "failed to read response body")}
	}

	if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError {
		return nil, &retryableError{err: fmt.Errorf("unexpected status code %d: %s", res.StatusCode, truncate(resBody))}
	}

	rpcResponse := &RPCResponse{}
	if err := json.Unmarshal(resBody, rpcResponse); err != nil {
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status code %d: %s", res.StatusCode, truncate(resBody))
		}
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}
	if rpcResponse.Error != nil {
		return nil, rpcResponse.Error
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d: %s", res.StatusCode, truncate(resBody))
	}
	return rpcResponse.Result, nil
}

func (c *Client) incr(name string, labels []metricsTypes.MetricsLabel) {
	if c.metrics == nil {
		return
	}
	_ = c.metrics.Incr(name, labels, 1)
}

func truncate(b []byte) string {
	const limit = 256
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
