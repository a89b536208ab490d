package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/UltraSive/garage/internal/cleaner"
	"github.com/UltraSive/garage/internal/config"
	"github.com/UltraSive/garage/internal/datastore"
	"github.com/UltraSive/garage/internal/datastore/bolt"
	"github.com/UltraSive/garage/internal/datastore/rocksdb"
	"github.com/UltraSive/garage/internal/datastore/sqlite"
	"github.com/UltraSive/garage/internal/garage"
	"github.com/UltraSive/garage/internal/handler"
	"github.com/UltraSive/garage/internal/metrics"
	"github.com/UltraSive/garage/internal/transport"
	"github.com/UltraSive/garage/internal/upstream"
)

func openStore(cfg config.Config) (datastore.Datastore, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return datastore.NewMemory(cfg.QuotaBytes), nil
	case config.StoreRocksDB:
		return rocksdb.Open(cfg.Path)
	case config.StoreBolt:
		return bolt.Open(cfg.Path)
	case config.StoreSQLite:
		return sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store: %s", cfg.Store)
	}
}

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	if err := run(logger); err != nil {
		level.Error(logger).Log("msg", "exiting", "err", err)
		os.Exit(1)
	}
}

// run returns instead of exiting so the deferred store close always runs.
func run(logger log.Logger) error {
	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// --- Store Setup ---
	ds, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open %s store at %q: %w", cfg.Store, cfg.Path, err)
	}
	defer func() {
		if err := ds.Close(); err != nil {
			level.Error(logger).Log("msg", "failed to close store", "err", err)
		}
	}()

	g, err := garage.New(ds,
		garage.WithIndexKey(cfg.IndexKey),
		garage.WithExpirationDays(cfg.ExpirationDays),
		garage.WithBlacklist(cfg.Blacklist...),
		garage.WithLogger(log.With(logger, "component", "garage")),
	)
	if err != nil {
		return fmt.Errorf("initialize garage: %w", err)
	}
	level.Info(logger).Log("msg", "garage ready", "store", cfg.Store, "tracked", g.Len(), "expiration_days", g.ExpirationDays())

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	defer m.Observe(g)()

	// --- Upstream Client ---
	var up *upstream.Client
	if cfg.UpstreamURL != "" {
		up = upstream.New(cfg.UpstreamURL, cfg.UpstreamTimeout)
	}

	// --- Handler ---
	h := handler.New(g, up)

	// --- Serve Function (used by HTTP + Unix transport) ---
	serveFn := func(payload []byte) ([]byte, error) {
		var req handler.Request
		if err := json.Unmarshal(payload, &req); err != nil {
			return json.Marshal(handler.Response{Type: "ERR", Error: err.Error()})
		}
		return json.Marshal(h.Serve(req))
	}

	// --- Start Unix Socket Listener ---
	var sock net.Listener
	if cfg.SocketPath != "" {
		// Remove old socket if it exists
		if _, err := os.Stat(cfg.SocketPath); err == nil {
			_ = os.Remove(cfg.SocketPath)
		}
		sock, err = net.Listen("unix", cfg.SocketPath)
		if err != nil {
			return fmt.Errorf("listen on socket %q: %w", cfg.SocketPath, err)
		}
		_ = os.Chmod(cfg.SocketPath, 0o660)
		sockLogger := log.With(logger, "component", "socket")
		go func() {
			if err := transport.Serve(sock, transport.ConnHandler(serveFn, sockLogger)); err != nil {
				level.Error(sockLogger).Log("msg", "unix socket server error", "err", err)
			}
		}()
		level.Info(logger).Log("msg", "listening on unix socket", "path", cfg.SocketPath)
	}

	// --- Start HTTP Server ---
	var httpSrv *http.Server
	if cfg.HTTPAddr != "" {
		httpSrv = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           transport.NewHTTPRouter(serveFn, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				level.Error(logger).Log("msg", "http server error", "err", err)
			}
		}()
		level.Info(logger).Log("msg", "listening on http", "addr", cfg.HTTPAddr)
	}

	// --- Start Cleaner (only if the sweep interval is set) ---
	stopCleaner := make(chan struct{})
	if cfg.SweepInterval > 0 {
		cleaner.Start(g, cfg.SweepInterval, m, log.With(logger, "component", "cleaner"), stopCleaner)
	}

	// --- Wait for Interrupt ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	level.Info(logger).Log("msg", "shutting down")

	close(stopCleaner)
	if sock != nil {
		_ = sock.Close()
		_ = os.Remove(cfg.SocketPath)
	}
	if httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(ctx)
	}
	level.Info(logger).Log("msg", "shutdown complete")
	return nil
}
