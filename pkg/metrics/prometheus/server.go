package prometheus

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type PrometheusServerConfig struct {
	Host string
	Port int
	// Gatherer defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// PrometheusServer exposes the registered metrics on /metrics.
type PrometheusServer struct {
	config   *PrometheusServerConfig
	logger   *zap.Logger
	server   *http.Server
	listener net.Listener
}

func NewPrometheusServer(config *PrometheusServerConfig, l *zap.Logger) *PrometheusServer {
	return &PrometheusServer{
		config: config,
		logger: l,
	}
}

// Start begins serving in the background. Sending on (or closing) stop shuts the
// server down.
func (ps *PrometheusServer) Start(stop <-chan bool) error {
	gatherer := ps.config.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	ps.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", ps.config.Host, ps.config.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	listener, err := net.Listen("tcp", ps.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on '%s'", ps.server.Addr)
	}
	ps.listener = listener

	go func() {
		ps.logger.Sugar().Infow("Prometheus server listening", zap.String("addr", listener.Addr().String()))
		if err := ps.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ps.logger.Sugar().Errorw("Prometheus server failed", zap.Error(err))
		}
	}()

	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ps.server.Shutdown(ctx); err != nil {
			ps.logger.Sugar().Errorw("Failed to shut down prometheus server", zap.Error(err))
		}
	}()
	return nil
}

// Addr is the address the server is listening on, useful when Port is 0.
func (ps *PrometheusServer) Addr() string {
	if ps.listener == nil {
		return ""
	}
	return ps.listener.Addr().String()
}
