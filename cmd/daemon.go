package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"grimm.is/spring/internal/brand"
	"grimm.is/spring/internal/config"
	"grimm.is/spring/internal/ctlplane"
	"grimm.is/spring/internal/dispatch"
	"grimm.is/spring/internal/logging"
	"grimm.is/spring/internal/metrics"
	"grimm.is/spring/internal/network"
	"grimm.is/spring/internal/phase"
)

// RunDaemon starts springd and blocks until SIGINT or SIGTERM. A panic in
// the daemon body restarts it after one second.
func RunDaemon(configFile, socketPath string) error {
	for {
		err := runDaemonOnce(configFile, socketPath)
		if err != nil && strings.HasPrefix(err.Error(), "PANIC:") {
			logging.Error("Daemon crashed with panic", "error", err)
			logging.Info("Restarting daemon in 1 second...")
			time.Sleep(time.Second)
			continue
		}
		return err
	}
}

func runDaemonOnce(configFile, socketPath string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PANIC: %v", r)
		}
	}()

	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store := config.NewStore(cfg.Options)
	logger, err := initDaemonLogging(cfg, store)
	if err != nil {
		return err
	}

	reg := metrics.Get()
	opts := network.Options{
		Acknowledge:     cfg.Kernel.Acknowledge,
		RecvBuffer:      cfg.Kernel.RecvBuffer,
		FollowMultipart: cfg.Kernel.FollowMultipart,
		Timeout:         cfg.KernelTimeout(),
		SocketOpened:    reg.RecordSocket,
	}
	mgr := network.NewManager(opts)
	d := dispatch.New(mgr, reg)

	runner := phase.NewRunner(d, cfg.Phases, reg)
	if err := runner.Validate(); err != nil {
		return fmt.Errorf("invalid phase configuration: %w", err)
	}

	watchdog := metrics.NewCollector(logger.WithComponent("watchdog"), mgr, cfg.WatchdogInterval())

	srv := ctlplane.NewServer(d, runner, store)
	srv.SetMetrics(reg)
	srv.SetWatchdog(watchdog)
	srv.SetConfigInfo(configFile, opts)

	if socketPath == "" {
		socketPath = cfg.Control.Socket
	}
	if socketPath == "" {
		socketPath = ctlplane.GetSocketPath()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx, socketPath); err != nil {
		return err
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		watchdog.Run(ctx)
	}()

	if cfg.Metrics.Listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveMetrics(ctx, logger, cfg.Metrics.Listen)
		}()
	}

	if len(cfg.RunPhases) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports, err := runner.RunAll(ctx, cfg.RunPhases)
			if err != nil {
				logger.Error("Startup phases failed", "error", err, "completed", len(reports))
				return
			}
			logger.Info("Startup phases complete", "phases", len(reports))
		}()
	}

	logger.Info("Daemon started", "version", brand.Version, "pid", os.Getpid(), "socket", socketPath, "config", configFile)

	<-ctx.Done()
	logger.Info("Shutting down")
	wg.Wait()
	srv.Wait()
	logger.Info("Daemon stopped")
	return nil
}

// initDaemonLogging builds the daemon logger. The debug file receives
// every record while the debug option is on.
func initDaemonLogging(cfg *config.Config, store *config.Store) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	debug := logging.NewDebugWriter(brand.GetDebugLogPath(), func() bool {
		return store.GetBoolOption(config.DebugEnableKey)
	})

	logging.SetPrefix(brand.DaemonName)
	logger := logging.New(logging.Config{
		Level:  level,
		Output: os.Stderr,
		Debug:  debug,
	})
	logging.SetDefault(logger)
	return logger.WithComponent("daemon"), nil
}

func serveMetrics(ctx context.Context, logger *logging.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("Metrics listener started", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics listener failed", "error", err)
	}
}
