package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xdurkle/rover/internal/api"
	"github.com/0xdurkle/rover/internal/app/expedition"
	"github.com/0xdurkle/rover/internal/app/loot"
	"github.com/0xdurkle/rover/internal/app/party"
	"github.com/0xdurkle/rover/internal/domain"
	"github.com/0xdurkle/rover/internal/health"
	"github.com/0xdurkle/rover/internal/infra/catalog"
	_ "github.com/0xdurkle/rover/internal/infra/metrics" // Register Prometheus metrics
	"github.com/0xdurkle/rover/internal/infra/sqlite"
	"github.com/0xdurkle/rover/internal/notify"
)

// Daemon is the core Rover runtime. It wires together all services.
type Daemon struct {
	Config      Config
	DB          *sqlite.DB
	Catalog     *catalog.Store
	Resolver    *loot.Resolver
	Notifier    domain.Notifier
	Expeditions *expedition.Service
	Parties     *party.Coordinator
	Server      *api.Server
	Health      *health.Checker
	cancel      context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	db, err := sqlite.Open(roverHome())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cat, err := catalog.NewStore(cfg.Catalog.File)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	resolver := loot.NewSeededResolver(time.Now().UnixNano())

	notifyTimeout := parseDuration(cfg.Notify.Timeout, 10*time.Second)
	var notifier domain.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notify.WebhookURL, notifyTimeout)
	} else {
		notifier = notify.LogNotifier{}
	}

	expeditions := expedition.NewService(db, cat, resolver, notifier, expedition.Config{
		PollInterval:  parseDuration(cfg.Poller.Interval, 5*time.Second),
		NotifyTimeout: notifyTimeout,
	})

	parties := party.NewCoordinator(db, cat, resolver, notifier, party.Config{
		JoinWindow:    parseDuration(cfg.Party.JoinWindow, 60*time.Second),
		TickInterval:  parseDuration(cfg.Poller.Interval, 5*time.Second),
		NotifyTimeout: notifyTimeout,
		DiscardAfter:  parseDuration(cfg.Party.DiscardAfter, 5*time.Minute),
	})
	if err := parties.Recover(); err != nil {
		db.Close()
		return nil, fmt.Errorf("recover parties: %w", err)
	}

	srv := api.NewServer(db, cat, expeditions, parties)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:      cfg,
		DB:          db,
		Catalog:     cat,
		Resolver:    resolver,
		Notifier:    notifier,
		Expeditions: expeditions,
		Parties:     parties,
		Server:      srv,
		Health:      health.NewChecker(db, cat, roverHome()),
	}, nil
}

// Serve starts the pollers and the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Expeditions.Run(ctx)
	go d.Parties.Run(ctx)
	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	fmt.Printf("Rover serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
