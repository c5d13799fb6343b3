package ethereum

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/Layr-Labs/logscope/pkg/logger"
	"github.com/jarcoal/httpmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLogger(t *testing.T) *zap.Logger {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.Nil(t, err)
	return l
}

func newTestClient(t *testing.T, baseUrl string) *Client {
	cfg := DefaultEthereumClientConfig()
	cfg.BaseUrl = baseUrl
	cfg.MaxRetries = 3
	cfg.InitialRetryInterval = time.Millisecond
	cfg.MaxRetryInterval = 5 * time.Millisecond
	return NewClient(cfg, newTestLogger(t))
}

// newRpcServer answers every request with handle's result or error.
func newRpcServer(t *testing.T, handle func(req *RPCRequest) (interface{}, *RPCError)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := &RPCRequest{}
		assert.Nil(t, json.NewDecoder(r.Body).Decode(req))

		result, rpcErr := handle(req)
		res := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
		}
		if rpcErr != nil {
			res["error"] = rpcErr
		} else {
			res["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}))
}

func Test_EthereumClient(t *testing.T) {
	t.Run("Should send a JSON-RPC 2.0 request and parse the result", func(t *testing.T) {
		var received *RPCRequest
		server := newRpcServer(t, func(req *RPCRequest) (interface{}, *RPCError) {
			received = req
			return "0x1b4", nil
		})
		defer server.Close()

		client := newTestClient(t, server.URL)
		blockNumber, err := Call(context.Background(), client, RPCMethod_BlockNumber)
		require.Nil(t, err)
		assert.Equal(t, uint64(436), blockNumber)

		require.NotNil(t, received)
		assert.Equal(t, "2.0", received.JSONRPC)
		assert.Equal(t, "eth_blockNumber", received.Method)
		assert.Equal(t, []interface{}{}, received.Params)
		assert.Equal(t, uint64(1), received.ID)
	})
	t.Run("Should use a new id per request", func(t *testing.T) {
		ids := make([]uint64, 0)
		server := newRpcServer(t, func(req *RPCRequest) (interface{}, *RPCError) {
			ids = append(ids, req.ID)
			return "0x0", nil
		})
		defer server.Close()

		client := newTestClient(t, server.URL)
		for i := 0; i < 3; i++ {
			_, err := client.Request(context.Background(), "eth_blockNumber", nil)
			require.Nil(t, err)
		}
		assert.Equal(t, []uint64{1, 2, 3}, ids)
	})
	t.Run("Should surface node errors verbatim without retrying", func(t *testing.T) {
		var calls atomic.Int32
		server := newRpcServer(t, func(req *RPCRequest) (interface{}, *RPCError) {
			calls.Add(1)
			return nil, &RPCError{Code: -32005, Message: "query returned more than 10000 results"}
		})
		defer server.Close()

		client := newTestClient(t, server.URL)
		_, err := client.Request(context.Background(), "eth_getLogs", []interface{}{map[string]interface{}{}})
		require.NotNil(t, err)

		var transportErr *eventErrors.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, "eth_getLogs", transportErr.Method)

		var rpcErr *RPCError
		require.True(t, errors.As(err, &rpcErr))
		assert.Equal(t, -32005, rpcErr.Code)
		assert.Equal(t, "query returned more than 10000 results", rpcErr.Message)
		assert.Equal(t, int32(1), calls.Load())
	})
	t.Run("Should retry transient HTTP failures", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x2a"}`))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		count, err := Call(context.Background(), client, RPCMethod_GetTransactionCount, "0x0000000000000000000000000000000000000001", "latest")
		require.Nil(t, err)
		assert.Equal(t, uint64(42), count)
		assert.Equal(t, int32(3), calls.Load())
	})
	t.Run("Should give up after the configured retries", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		_, err := client.Request(context.Background(), "eth_blockNumber", nil)
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "429")
		assert.Equal(t, int32(4), calls.Load())
	})
	t.Run("Should not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("unauthorized"))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		_, err := client.Request(context.Background(), "eth_blockNumber", nil)
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "401")
		assert.Equal(t, int32(1), calls.Load())
	})
	t.Run("Should stop when the context is cancelled", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := newTestClient(t, server.URL)
		_, err := client.Request(ctx, "eth_blockNumber", nil)
		require.NotNil(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func Test_EthereumClientWithHttpMock(t *testing.T) {
	baseUrl := "http://localhost:8545"

	mockHttpClient := &http.Client{}
	httpmock.ActivateNonDefault(mockHttpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", baseUrl, httpmock.NewStringResponder(200, `{
		"jsonrpc": "2.0",
		"id": 1,
		"result": [{
			"address": "0x5fbdb2315678afecb367f032d93f642f64180aa3",
			"topics": [
				"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
				"0x000000000000000000000000f39fd6e51aad88f6f4ce6ab8827279cfffb92266",
				"0x00000000000000000000000070997970c51812dc3a010c7d01b50e0d17dc79c8"
			],
			"data": "0x0000000000000000000000000000000000000000000000000000000000000001",
			"blockNumber": "0x2",
			"blockHash": "0x4b2d8fa3ab8de1fcae6e8b4f0e45c3cea1fdd5e1f3c4d1c0b1e8a1d4b7f1a1a1",
			"transactionHash": "0x9a2cbd4b4b9f4b0f8d2c6a3b1e2d3c4b5a6978877665544332211000ffeeddcc",
			"transactionIndex": "0x0",
			"logIndex": "0x3",
			"removed": false
		}, {
			"address": "0x5fbdb2315678afecb367f032d93f642f64180aa3",
			"topics": [],
			"data": "0x",
			"blockNumber": null,
			"blockHash": null,
			"transactionHash": null,
			"transactionIndex": null,
			"logIndex": null
		}]
	}`))

	client := newTestClient(t, baseUrl)
	client.SetHttpClient(mockHttpClient)

	logs, err := Call(context.Background(), client, RPCMethod_GetLogs, map[string]interface{}{"fromBlock": "0x1"})
	require.Nil(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	mined := logs[0]
	assert.Equal(t, uint64(2), mined.BlockNumber.Value())
	assert.Equal(t, uint64(3), mined.LogIndex.Value())
	require.NotNil(t, mined.Removed)
	assert.False(t, *mined.Removed)

	topics, err := mined.TopicHashes()
	require.Nil(t, err)
	assert.Len(t, topics, 3)

	data, err := mined.DataBytes()
	require.Nil(t, err)
	assert.Len(t, data, 32)

	pending := logs[1]
	assert.Nil(t, pending.BlockNumber)
	assert.Nil(t, pending.BlockHash)
	assert.Equal(t, uint64(0), pending.LogIndex.Value())

	data, err = pending.DataBytes()
	require.Nil(t, err)
	assert.Len(t, data, 0)
}

func Test_ParseQuantity(t *testing.T) {
	tests := []struct {
		raw      string
		expected uint64
		hasError bool
	}{
		{`"0x10"`, 16, false},
		{`"0x0"`, 0, false},
		{`"16"`, 16, false},
		{`16`, 16, false},
		{`"0x"`, 0, true},
		{`"abc"`, 0, true},
		{`-1`, 0, true},
		{`null`, 0, true},
	}
	for _, test := range tests {
		v, err := ParseQuantity(json.RawMessage(test.raw))
		if test.hasError {
			assert.NotNil(t, err, test.raw)
			continue
		}
		assert.Nil(t, err, test.raw)
		assert.Equal(t, test.expected, v, test.raw)
	}
}

func Test_EthereumEventLogValidation(t *testing.T) {
	lg := &EthereumEventLog{Topics: []EthereumHexString{"0x1234"}, Data: "0xzz"}

	_, err := lg.TopicHashes()
	assert.NotNil(t, err)

	_, err = lg.DataBytes()
	assert.NotNil(t, err)
}
