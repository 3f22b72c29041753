package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/tracker"
)

const defaultPollInterval = 30 * time.Second

// StartPoller launches a background goroutine that logs the tracker's HTTP
// status at a fixed cadence. It returns immediately.
func StartPoller(ctx context.Context, fetcher tracker.StatusFetcher, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			pollStatus(ctx, fetcher, logger)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func pollStatus(ctx context.Context, fetcher tracker.StatusFetcher, logger *zap.Logger) {
	status, err := fetcher.FetchStatus(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("status poll failed", zap.Error(err))
		}
		return
	}
	logger.Info("tracker status",
		zap.String("status", status.Status),
		zap.Int("connected_clients", status.TotalConnectedClients),
		zap.Int("peers", status.TotalPeers),
		zap.Int("torrents", status.TotalTorrents))
}
