package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/deploy-agent/internal/appspec"
	"github.com/MrSnakeDoc/deploy-agent/internal/config"
	"github.com/MrSnakeDoc/deploy-agent/internal/connect"
	"github.com/MrSnakeDoc/deploy-agent/internal/consul"
	"github.com/MrSnakeDoc/deploy-agent/internal/deployment"
	"github.com/MrSnakeDoc/deploy-agent/internal/httpserver"
	"github.com/MrSnakeDoc/deploy-agent/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deploy-agent/internal/logger"
	"github.com/MrSnakeDoc/deploy-agent/internal/redis"
	"github.com/MrSnakeDoc/deploy-agent/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/deploy-agent/internal/store/redis"
	"github.com/MrSnakeDoc/deploy-agent/internal/utils"
	"github.com/MrSnakeDoc/deploy-agent/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	runner      *scheduler.DeploymentRunner
	syncer      *scheduler.DiscoverySyncer
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Consul is mandatory - fail fast if unavailable
	loggerClient.Infof("Connecting to Consul at %s", cfg.ConsulAddr)
	consulClient, err := consul.New(context.Background(), consul.Options{
		Addr:       cfg.ConsulAddr,
		Scheme:     cfg.ConsulScheme,
		Token:      cfg.ConsulToken,
		Datacenter: cfg.ConsulDatacenter,
		Retry: connect.Options{
			ConnectTimeout: cfg.ConsulConnectTimeout,
			RetryInterval:  cfg.ConsulRetryInterval,
			MaxWait:        cfg.ConsulMaxWait,
			PingTimeout:    cfg.ConsulPingTimeout,
			WarnThreshold:  cfg.RetryWarnThreshold,
		},
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Consul: %v", err)
		os.Exit(1)
	}

	// Redis only backs the deployment journal
	var (
		redisClient *goredis.Client
		journal     deployment.Journal
		reader      deps.JournalReader
	)
	if cfg.JournalEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err = redis.New(context.Background(), redis.ConnectOptions{
			Addr:         cfg.RedisAddr,
			User:         cfg.RedisUser,
			Password:     cfg.RedisPassword,
			RedisDB:      cfg.RedisDB,
			DialTimeout:  cfg.RedisDT,
			ReadTimeout:  cfg.RedisRT,
			WriteTimeout: cfg.RedisWT,
			PoolSize:     cfg.RedisPoolSize,
			Retry: connect.Options{
				ConnectTimeout: cfg.RedisConnectTimeout,
				RetryInterval:  cfg.RedisRetryInterval,
				MaxWait:        cfg.RedisMaxWait,
				PingTimeout:    cfg.RedisPingTimeout,
				WarnThreshold:  cfg.RetryWarnThreshold,
			},
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		store := redisstore.NewStore(redisClient)
		journal, reader = store, store
		loggerClient.Info("deployment journal enabled")
	} else {
		loggerClient.Info("AGENT_REDIS_ADDR not set, deployment journal disabled")
	}

	pipeline := deployment.NewPipeline(journal,
		deployment.ValidateDeployment{},
		deployment.NewLoadAppSpec(appspec.NewLoader(cfg.AppSpecFile)),
		deployment.NewRegisterConsulService(consulClient),
		deployment.NewRegisterConsulHealthChecks(consulClient, deployment.CheckPolicy{
			Interval: cfg.CheckInterval,
			Timeout:  cfg.CheckTimeout,
		}, cfg.RegistrationConcurrency),
	)
	loggerClient.Info("deployment pipeline ready",
		logger.Strings("stages", pipeline.Stages()),
		logger.Bool("journal", cfg.JournalEnabled()))

	runner := scheduler.NewDeploymentRunner(pipeline, journal, loggerClient, cfg.QueueSize)

	// Create manual sync trigger channel
	syncTrigger := make(chan struct{}, 1)
	syncer := scheduler.NewDiscoverySyncer(consulClient, loggerClient, cfg.SyncInterval, syncTrigger)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		Consul:       consulClient,
		Runner:       runner,
		Services:     syncer,
		Journal:      reader,
		RedisClient:  redisClient,
		SyncTrigger:  syncTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		runner:      runner,
		syncer:      syncer,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting deploy-agent v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())
	defer func() { _ = a.logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initial sync, then periodic refresh of the agent's services
	if err := a.syncer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start discovery syncer: %w", err)
	}
	a.logger.Info("discovery syncer started",
		logger.Duration("interval", a.cfg.SyncInterval))

	a.runner.Start(ctx)
	a.logger.Info("deployment runner started",
		logger.Int("queue_size", a.cfg.QueueSize))

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// ctx is canceled, so a running deployment returns at its next stage boundary
	a.runner.Stop()
	a.syncer.Stop()

	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, "redis", a.logger)
	}

	a.logger.Info("✅ deploy-agent stopped cleanly")
	return nil
}
