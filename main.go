package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Zachkp/portfolio/internal/assetcache"
	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/logging"
	"github.com/Zachkp/portfolio/internal/metrics"
	"github.com/Zachkp/portfolio/internal/reconnect"
	"github.com/Zachkp/portfolio/internal/store"
)

const (
	Version = "1.0.0"
	appName = "portfolio"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Personal portfolio site",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logLevel)
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to LOG_LEVEL")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Send the pending contact message, if any, and clear it on success",
		RunE: func(cmd *cobra.Command, args []string) error {
			return flush(cmd.Context())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func newTransport(cfg *config.Config) contact.Transport {
	if cfg.ContactTransport == config.TransportSMTP {
		return &contact.SMTPTransport{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			To:   cfg.ToEmail,
		}
	}
	return contact.NewHTTPTransport(cfg.ContactEndpoint)
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.Default()
	if cfg.DefaultAdmin {
		logger.Warn("Using default admin credentials. Set ADMIN_USERNAME and ADMIN_PASSWORD.")
	}

	db, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	transport := newTransport(cfg)
	feed := contact.NewFeed(50, logger)
	pending := contact.NewPendingSlot(db)
	if _, ok, err := pending.Load(ctx); err == nil {
		m.SetPending(ok)
	}

	var connectivity contact.Connectivity = contact.AlwaysOnline{}
	var monitor *reconnect.Monitor
	if cfg.ProbeURL != "" {
		monitor = reconnect.NewMonitor(&reconnect.HTTPProber{URL: cfg.ProbeURL}, cfg.ProbeInterval, logger)
		connectivity = monitor
	}

	watcher := reconnect.NewWatcher(pending, transport, feed, reconnect.WatcherOptions{
		Delay:   cfg.ResendDelay,
		Timeout: cfg.ContactTimeout,
		Metrics: m,
		Logger:  logger,
	})

	srv := &server{
		cfg:     cfg,
		log:     db,
		pending: pending,
		submitter: contact.NewSubmitter(transport, contact.Options{
			Timeout:       cfg.ContactTimeout,
			FallbackEmail: cfg.FallbackEmail,
			Connectivity:  connectivity,
			Pending:       pending,
			Alerts:        feed,
			Log:           db,
			Metrics:       m,
			Logger:        logger,
		}),
		watcher:      watcher,
		connectivity: connectivity,
		feed:         feed,
		cache:        assetcache.NewController(assetcache.NewStorage(), nil, m, logger),
		metrics:      m,
		registry:     reg,
		admin:        newAdminAuth(cfg.AdminUsername, cfg.AdminPassword),
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(srv)
	srv.cache.SetFetcher(&assetcache.HandlerFetcher{Handler: router})

	if manifest, err := assetcache.LoadManifest(cfg.AssetManifest); err != nil {
		logger.Warn("Asset cache disabled", "error", err)
	} else {
		if err := srv.cache.Register(ctx, manifest); err != nil {
			logger.Error("Initial asset cache install failed", "error", err)
		}
		go func() {
			if err := assetcache.NewReloader(cfg.AssetManifest, srv.cache, logger).Run(ctx); err != nil {
				logger.Error("Manifest reloader stopped", "error", err)
			}
		}()
	}

	if monitor != nil {
		watcher.Attach(monitor)
		go monitor.Run(ctx)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func flush(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	w := reconnect.NewWatcher(contact.NewPendingSlot(db), newTransport(cfg), contact.NewFeed(10, slog.Default()), reconnect.WatcherOptions{
		Timeout: cfg.ContactTimeout,
	})
	res, err := w.HandleOnline(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("pending message: %s\n", res)
	if res == reconnect.FlushFailed {
		return errors.New("pending message could not be sent")
	}
	return nil
}
