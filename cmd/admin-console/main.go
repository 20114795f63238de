// cmd/admin-console/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"casting-admin/internal/api"
	"casting-admin/internal/audit"
	"casting-admin/internal/common/auth"
	"casting-admin/internal/common/config"
	"casting-admin/internal/common/database"
	commonhttp "casting-admin/internal/common/http"
	"casting-admin/internal/common/logger"
	"casting-admin/internal/common/observability"
	"casting-admin/internal/console"
	"casting-admin/internal/controllers"
	"casting-admin/internal/resources"
	"casting-admin/internal/session"
	"casting-admin/pkg/registry"
)

// app holds everything a command needs. It lives for one invocation.
type app struct {
	cfg     *config.Config
	zapLog  *zap.Logger
	log     logger.Logger
	obs     *observability.Observability
	session *session.Store
	client  *api.Client
	catalog *resources.Catalog
	trail   *audit.Trail
	delays  resources.Delays

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	yes    bool

	closers []func()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	global := flag.NewFlagSet("admin-console", flag.ContinueOnError)
	global.SetOutput(errOut)
	configPath := global.String("config", "", "Path to a config file (default: configs/config.yaml)")
	yes := global.Bool("yes", false, "Answer yes to every confirmation")
	global.Usage = func() { usage(errOut) }

	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		usage(errOut)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(errOut, "config load failed: %v\n", err)
		return 1
	}

	a, err := newApp(ctx, cfg, in, out, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "startup failed: %v\n", err)
		return 1
	}
	defer a.close()
	a.yes = *yes

	name, rest := global.Arg(0), global.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(errOut, "unknown command %q\n", name)
		usage(errOut)
		return 2
	}

	if err := cmd.run(ctx, a, rest); err != nil {
		a.zapLog.Debug("command failed", zap.String("command", name), zap.Error(err))
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func newApp(ctx context.Context, cfg *config.Config, in io.Reader, out, errOut io.Writer) (*app, error) {
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.NewZapAdapter(zapLog)

	a := &app{
		cfg:    cfg,
		zapLog: zapLog,
		log:    log,
		delays: resources.DelaysFromConfig(cfg.UX),
		in:     in,
		out:    out,
		errOut: errOut,
	}
	a.closers = append(a.closers, func() { _ = zapLog.Sync() })

	obs, err := observability.New(cfg.App.Name, cfg.Tracing)
	if err != nil {
		return nil, err
	}
	a.obs = obs
	a.closers = append(a.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		obs.Shutdown(shutdownCtx)
	})

	if cfg.Metrics.Enabled {
		a.startMetricsServer()
	}

	httpClient := commonhttp.NewClient(config.GetDuration(cfg.API.Timeout)).WithUserAgent(cfg.API.UserAgent)

	backend, err := a.sessionBackend(ctx)
	if err != nil {
		return nil, err
	}
	billing, err := cfg.API.BaseURL(config.HostBilling)
	if err != nil {
		return nil, err
	}
	ttl := config.GetDuration(cfg.Session.TTL)
	a.session = session.NewStore(backend, auth.NewAdminAuthClient(billing, httpClient), ttl, log)

	a.catalog = resources.New(a.delays)
	if cfg.API.RegistryPath != "" {
		reg, err := registry.Load(cfg.API.RegistryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load resource registry: %w", err)
		}
		if err := a.catalog.ApplyRegistry(reg); err != nil {
			return nil, err
		}
		zapLog.Info("Resource registry applied", zap.String("path", cfg.API.RegistryPath), zap.Int("overrides", len(reg.Resources)))
	}

	a.client = api.NewClient(api.Options{
		HTTPClient:  httpClient,
		Hosts:       cfg.API.Hosts,
		Tokens:      a.session,
		Invalidator: a.session,
		Logger:      log,
		Tracer:      obs.Tracer(),
	})
	a.client.Register(a.catalog.Resources()...)

	recorder, err := a.auditRecorder(ctx)
	if err != nil {
		return nil, err
	}
	a.trail = audit.NewTrail(recorder, a.session, log)

	return a, nil
}

func (a *app) sessionBackend(ctx context.Context) (session.Backend, error) {
	if a.cfg.Session.Backend != "redis" {
		return session.NewMemoryBackend(), nil
	}
	rdb, err := database.ConnectRedis(ctx, a.cfg.Database.Redis)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = rdb.Close() })
	return session.NewRedisBackend(rdb.Client, a.cfg.Session.KeyPrefix, config.GetDuration(a.cfg.Session.TTL)), nil
}

// auditRecorder connects the configured sinks. A sink that cannot be reached
// is skipped with a warning; auditing never blocks the console.
func (a *app) auditRecorder(ctx context.Context) (audit.Recorder, error) {
	if !a.cfg.Audit.Enabled {
		return audit.Noop{}, nil
	}

	var sinks audit.Multi
	if a.cfg.Audit.Postgres {
		rec, err := a.postgresSink(ctx)
		if err != nil {
			a.zapLog.Warn("postgres audit sink disabled", zap.Error(err))
		} else {
			sinks = append(sinks, rec)
		}
	}
	if a.cfg.Audit.Elasticsearch {
		rec, err := a.elasticsearchSink(ctx)
		if err != nil {
			a.zapLog.Warn("elasticsearch audit sink disabled", zap.Error(err))
		} else {
			sinks = append(sinks, rec)
		}
	}
	if len(sinks) == 0 {
		return audit.Noop{}, nil
	}
	return sinks, nil
}

func (a *app) postgresSink(ctx context.Context) (*audit.PostgresRecorder, error) {
	pg, err := database.ConnectPostgres(ctx, a.cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = pg.Close() })

	rec, err := audit.NewPostgresRecorder(pg.DB, a.cfg.Audit.Table)
	if err != nil {
		return nil, err
	}
	if err := rec.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

func (a *app) elasticsearchSink(ctx context.Context) (*audit.ElasticsearchRecorder, error) {
	es, err := database.NewElasticsearch(a.cfg.Database.Elasticsearch)
	if err != nil {
		return nil, err
	}
	if err := es.Ping(ctx); err != nil {
		return nil, err
	}
	if err := es.EnsureIndex(ctx, a.cfg.Audit.Index, audit.IndexMapping); err != nil {
		return nil, err
	}
	return audit.NewElasticsearchRecorder(es.Client, a.cfg.Audit.Index), nil
}

func (a *app) startMetricsServer() {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: a.cfg.Metrics.Address, Handler: mux}
	go func() {
		a.zapLog.Info("Metrics server listening", zap.String("address", a.cfg.Metrics.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.zapLog.Error("Metrics server failed", zap.Error(err))
		}
	}()
	a.closers = append(a.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// screen mounts a screen whose navigation intents are printed. The returned
// func waits for pending navigation and unmounts.
func (a *app) screen(ctx context.Context) (*console.Screen, controllers.Deps, func()) {
	nav := console.NewDelayedNavigator(func(path string) {
		fmt.Fprintf(a.out, "→ %s\n", path)
	}, a.log)
	screen := console.Mount(ctx, nav)

	var confirmer console.Confirmer = console.NewPromptConfirmer(a.in, a.errOut)
	if a.yes {
		confirmer = console.AutoConfirm(true)
	}

	deps := controllers.Deps{
		Confirmer: confirmer,
		Notifier:  console.NewWriterNotifier(a.out, a.errOut),
		Navigator: nav,
		Trail:     a.trail,
		Obs:       a.obs,
		Logger:    a.log,
	}
	return screen, deps, func() {
		nav.Wait()
		screen.Unmount()
	}
}
