package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// serveMetrics exposes handler at /metrics on addr until ctx ends or the
// returned function is called. An empty addr disables the endpoint.
func serveMetrics(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) func() {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Warn("metrics endpoint disabled", zap.String("addr", addr), zap.Error(err))
		return func() {}
	}
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stopped) })
	}
}
