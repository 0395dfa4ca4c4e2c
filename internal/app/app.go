package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/skymock/internal/config"
	"github.com/MrSnakeDoc/skymock/internal/httpserver"
	"github.com/MrSnakeDoc/skymock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skymock/internal/logger"
	"github.com/MrSnakeDoc/skymock/internal/messages"
	"github.com/MrSnakeDoc/skymock/internal/mocks/cloudfeeds"
	"github.com/MrSnakeDoc/skymock/internal/mocks/mailgun"
	"github.com/MrSnakeDoc/skymock/internal/monitoring"
	"github.com/MrSnakeDoc/skymock/internal/redis"
	"github.com/MrSnakeDoc/skymock/internal/registry"
	"github.com/MrSnakeDoc/skymock/internal/scheduler"
	"github.com/MrSnakeDoc/skymock/internal/session"
	"github.com/MrSnakeDoc/skymock/internal/sources/apis"
	redisstore "github.com/MrSnakeDoc/skymock/internal/store/redis"
	"github.com/MrSnakeDoc/skymock/internal/utils"
	"github.com/MrSnakeDoc/skymock/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	registry    *registry.Registry
	reaper      *scheduler.SessionReaper
}

func New() *App {
	envFile, envErr := config.LoadEnvFile()
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	if envErr != nil {
		loggerClient.Errorf("Failed to read env file %s: %v", envFile, envErr)
		os.Exit(1)
	}
	if envFile != "" {
		loggerClient.Info("environment loaded from file", logger.String("file", envFile))
	}

	// Messages stay in memory unless redis is configured. A configured but
	// unreachable redis is fatal: tests would silently lose their messages.
	var (
		store       messages.Store
		redisClient *goredis.Client
	)
	if cfg.RedisEnabled() {
		client, err := redis.New(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		runID := uuid.NewString()
		loggerClient.Info("messages stored in redis", logger.String("run_id", runID))
		redisClient = client
		store = redisstore.NewMessageStore(client, runID)
	} else {
		loggerClient.Info("redis not configured, messages kept in memory")
		store = messages.NewMemoryStore()
	}

	state := session.NewState(store, cfg.TokenTTL)

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg := registry.New(state, logger.Named(loggerClient, "registry"),
		registry.WithMonitor(monitoring.NewMonitor(metrics)))

	if err := RegisterPlugins(reg, cfg, loggerClient); err != nil {
		loggerClient.Errorf("Failed to register plugins: %v", err)
		os.Exit(1)
	}

	d := deps.Deps{
		Logger:      loggerClient,
		StartTime:   time.Now(),
		Version:     version.Version,
		Commit:      version.Commit,
		BuildDate:   version.BuildDate,
		GoVersion:   version.GoVersion,
		TimeNow:     time.Now,
		AdminCIDRS:  cfg.AdminCIDRS,
		TrustProxy:  cfg.TrustProxy,
		BaseURL:     cfg.BaseURL,
		Registry:    reg,
		State:       state,
		RedisClient: redisClient,
		Gatherer:    metrics,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		registry:    reg,
		reaper:      scheduler.NewSessionReaper(state.Sessions, logger.Named(loggerClient, "sessions"), cfg.SessionReapInterval),
	}
}

// RegisterPlugins registers the built-in mocks, then the external APIs
// described by cfg.ExternalAPIsFile. Registration order is catalog order.
func RegisterPlugins(reg *registry.Registry, cfg *config.Config, log logger.Logger) error {
	reg.Register(cloudfeeds.New(cfg.FeedsRegions, logger.Named(log, "cloudfeeds")))
	reg.RegisterDomain(mailgun.New(cfg.MailgunDomain, reg.State(), logger.Named(log, "mailgun")))

	if cfg.ExternalAPIsFile == "" {
		return nil
	}
	file, err := apis.NewLoader(cfg.ExternalAPIsFile).Load()
	if err != nil {
		return fmt.Errorf("load external apis: %w", err)
	}
	external, err := apis.NewMapper().MapAPIs(file)
	if err != nil {
		return fmt.Errorf("map external apis: %w", err)
	}
	for _, api := range external {
		reg.Register(api)
	}
	log.Info("external apis loaded",
		logger.String("file", cfg.ExternalAPIsFile),
		logger.Int("count", len(external)))
	return nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting skymock v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("skymock %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.reaper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session reaper: %w", err)
	}
	a.logger.Info("session reaper started",
		logger.Duration("interval", a.cfg.SessionReapInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reaper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, "redis", a.logger)
	}

	a.logger.Info("✅ skymock stopped cleanly",
		logger.Int("sessions", a.registry.State().Sessions.Count()))
	return nil
}
