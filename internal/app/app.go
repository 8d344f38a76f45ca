package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/valyala/fasthttp"

	"curbdb/internal/snapshot"
	"curbdb/pkg/api"
	"curbdb/pkg/api/auth"
	"curbdb/pkg/config"
	"curbdb/pkg/logger"
	"curbdb/pkg/notify"
	"curbdb/pkg/presence"
	"curbdb/pkg/service"
	"curbdb/pkg/store/db/storedb"
	"curbdb/pkg/telemetry"
)

// app groups server state and components.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	store     *storedb.Store
	svc       *service.Service
	events    *notify.Dispatcher
	presence  *presence.Sink
	snapshots *snapshot.Manager
	gateway   *auth.Gateway

	srvFast *fasthttp.Server
	state   string
}

// New opens the store and assembles the service with its event sinks. It
// does not start the http server or the snapshot scheduler; call Run.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	if eff.Config == nil {
		return nil, fmt.Errorf("missing effective config")
	}
	cfg := eff.Config

	telemetry.SetSlowThreshold(cfg.Telemetry.SlowThreshold.Duration())

	store, err := storedb.Open(eff.DBPath, storedb.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", eff.DBPath, err)
	}

	a := &App{eff: eff, version: version, commit: commit, buildDate: buildDate, store: store, state: "starting"}

	var sinks []notify.Sink
	if cfg.Kafka.Enabled {
		sinks = append(sinks, notify.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic))
	}
	if cfg.Redis.Enabled {
		a.presence = presence.New(presence.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		})
		sinks = append(sinks, a.presence)
	}

	opts := service.Options{
		Name:            cfg.Engine.Name,
		ActiveThreshold: cfg.Engine.ActiveThreshold.Duration(),
	}
	if len(sinks) > 0 {
		a.events = notify.NewDispatcher(cfg.Kafka.QueueCapacity, 5*time.Second, sinks...)
		opts.Events = a.events
	}

	a.svc, err = service.New(store, opts)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize service: %w", err)
	}

	if cfg.Snapshot.Enabled {
		a.snapshots = snapshot.New(store, snapshot.Config{
			Cron: cfg.Snapshot.Cron,
			Dir:  cfg.Snapshot.Dir,
			Keep: cfg.Snapshot.Keep,
		})
	}
	return a, nil
}

// Service exposes the assembled service.
func (a *App) Service() *service.Service {
	return a.svc
}

// Run starts the event dispatcher, the snapshot scheduler and the http
// server, and blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.printSummary()

	if a.events != nil {
		a.events.Start()
	}
	if a.snapshots != nil {
		if err := a.snapshots.Start(ctx); err != nil {
			return err
		}
	}

	errCh := a.startHTTP(ctx)
	a.state = "running"

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// printSummary logs the effective configuration and build info.
func (a *App) printSummary() {
	verStr := a.version
	if a.commit != "" && a.commit != "none" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "" && a.buildDate != "unknown" {
		verStr += " @ " + a.buildDate
	}
	items := []string{
		fmt.Sprintf("version: %s", verStr),
		fmt.Sprintf("addr: %s", a.eff.Addr),
		fmt.Sprintf("db_path: %s", a.eff.DBPath),
		fmt.Sprintf("max_body_size: %s", humanize.IBytes(uint64(a.eff.Config.Server.API.MaxBodySize.Int64()))),
	}
	items = append(items, a.eff.Config.Summary()...)
	logger.LogConfigSummary("curbdb_starting", items)
}

// verifier builds the caller verifier from the auth config.
func (a *App) verifier() *auth.Verifier {
	return auth.NewVerifier(a.eff.Config.Auth.SigningKeys, a.eff.Config.Auth.JWTSecret)
}

// handler assembles the request pipeline without binding a listener.
func (a *App) handler() fasthttp.RequestHandler {
	cfg := a.eff.Config
	if a.gateway == nil {
		a.gateway = auth.NewGateway(auth.SecConfig{
			AllowedOrigins: append([]string{}, cfg.Server.CORS.AllowedOrigins...),
			RPS:            cfg.Server.RateLimit.RPS,
			Burst:          cfg.Server.RateLimit.Burst,
		}, a.verifier())
	}
	return api.Handler(api.NewHandlers(a.svc), a.gateway, a.registerHealthChecks)
}
