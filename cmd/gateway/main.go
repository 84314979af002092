package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"moderation-gateway/internal/config"
	"moderation-gateway/internal/logging"
	"moderation-gateway/middleware/ratelimit"
	rateapp "moderation-gateway/middleware/ratelimit/application"
	ratedomain "moderation-gateway/middleware/ratelimit/domain"
	rateinfra "moderation-gateway/middleware/ratelimit/infra"
	"moderation-gateway/relay/application"
	"moderation-gateway/relay/domain"
	"moderation-gateway/relay/httpapi"
	"moderation-gateway/relay/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		// o logger pode não existir ainda
		_, _ = os.Stderr.WriteString("gateway: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Console:    cfg.LogConsole,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var rdb *redis.Client
	if cfg.NeedsRedis() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancelPing()
		if err != nil {
			return errors.New("redis ping error: " + err.Error())
		}
	}

	// rate limit
	blocklist := rateinfra.NewBlocklist()
	windows := rateinfra.NewWindowStore(
		rateinfra.WithIdleTTL(cfg.RateWindow),
		rateinfra.WithCleanupEvery(cfg.RateSweepEvery),
		rateinfra.WithKeep(blocklist.Contains),
	)
	limiter := rateapp.Service{
		Windows:       windows,
		Blocklist:     blocklist,
		Limit:         cfg.RateLimit,
		Window:        cfg.RateWindow,
		BlockDuration: cfg.RateBlockDuration,
	}
	rateinfra.StartJanitor(ctx, windows.CleanupEvery(), func() {
		expired := blocklist.Expire(time.Now())
		removed := windows.Cleanup()
		if expired > 0 || removed > 0 {
			logger.Debug().Int("unblocked", expired).Int("windows_removed", removed).Msg("rate limit sweep")
		}
	})

	memStats := rateinfra.NewMemoryStatsStore(rateinfra.WithTrackKeys(cfg.RateStatsTrackKeys))
	stats := rateinfra.MultiStats{
		memStats,
		rateinfra.NewPrometheusStatsStore(reg, limiter.Stats),
	}
	if cfg.RateStatsEnabled {
		stats = append(stats, rateinfra.NewRedisStatsStore(
			rdb,
			rateinfra.WithStatsPrefix(cfg.RateStatsPrefix),
			rateinfra.WithStatsTTL(cfg.RateStatsTTL),
			rateinfra.WithStatsBucket(cfg.RateStatsBucket),
			rateinfra.WithStatsTrackKeys(cfg.RateStatsTrackKeys),
		))
	}

	// relay
	metrics := application.NewMetrics(reg)
	relay, err := buildRelay(cfg, rdb, metrics, logger)
	if err != nil {
		return err
	}

	h := http.Handler(httpapi.NewRouter(httpapi.NewHandler(httpapi.Deps{
		Tenants:        relay.tenants,
		Commands:       relay.commands,
		Queue:          relay.queue,
		Moderation:     relay.moderation,
		Status:         func() ratedomain.Stats { return limiter.Stats() },
		Admission:      func() any { return memStats.Snapshot() },
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AdminKey:       cfg.AdminKey,
		PersistTimeout: cfg.PersistTimeout,
		Logger:         logging.Component(logger, "http"),
	})))
	h = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            cfg.ConcurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.ConcurrencyTimeout,
		Registerer:     reg,
	})(h)
	if origins := cfg.Origins(); len(origins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "X-API-Key", "X-Admin-Key"},
			ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		}).Handler(h)
	}
	if cfg.RateEnabled {
		h = ratelimit.Middleware(ratelimit.Options{
			Limiter:             limiter,
			Stats:               stats,
			KeyHeader:           cfg.RateKeyHeader,
			TrustXForwardedFor:  cfg.TrustXFF,
			RejectStatus:        http.StatusTooManyRequests,
			AddRateLimitHeaders: true,
			Logger:              logging.Component(logger, "ratelimit"),
		})(h)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("http shutdown")
		}
		if relay.notifier != nil {
			if err := relay.notifier.Close(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("notifier did not drain before shutdown deadline")
			}
		}
	}()

	logger.Info().
		Str("addr", cfg.ListenAddr).
		Str("data_dir", cfg.DataDir).
		Str("queue_backend", cfg.QueueBackend).
		Bool("webhook", cfg.WebhookURL != "").
		Msg("gateway listening")
	logger.Info().
		Bool("enabled", cfg.RateEnabled).
		Int("limit", cfg.RateLimit).
		Dur("window", cfg.RateWindow).
		Dur("block", cfg.RateBlockDuration).
		Str("key_header", cfg.RateKeyHeader).
		Bool("trust_xff", cfg.TrustXFF).
		Msg("rate limit")
	logger.Info().
		Bool("enabled", cfg.RateStatsEnabled).
		Str("bucket", cfg.RateStatsBucket).
		Dur("ttl", cfg.RateStatsTTL).
		Msg("rate stats")
	logger.Info().Int("max", cfg.ConcurrencyMax).Dur("acquire_timeout", cfg.ConcurrencyTimeout).Msg("concurrency")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone
	return nil
}

type relayDeps struct {
	tenants    domain.TenantRegistry
	commands   *application.CommandLog
	queue      *application.ActionQueue
	moderation *application.Moderation
	notifier   *infra.WebhookNotifier
}

func buildRelay(cfg config.Config, rdb *redis.Client, metrics *application.Metrics, logger zerolog.Logger) (relayDeps, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return relayDeps{}, err
	}
	storeLog := logging.Component(logger, "storage")
	doc := func(name string) *infra.Document {
		return infra.NewDocument(filepath.Join(cfg.DataDir, name), storeLog)
	}

	var queueStore domain.QueueStore
	switch cfg.QueueBackend {
	case "redis":
		queueStore = infra.NewRedisQueueStore(rdb, infra.WithQueueLogger(logging.Component(logger, "queue")))
	default:
		queueStore = infra.NewFileQueueStore(doc("pending_actions.json"))
	}

	var d relayDeps
	var notifier domain.Notifier
	if cfg.WebhookURL != "" {
		d.notifier = infra.NewWebhookNotifier(cfg.WebhookURL, logging.Component(logger, "notifier"),
			infra.WithWebhookRate(cfg.WebhookRPS, cfg.WebhookBurst),
			infra.WithWebhookQueue(cfg.WebhookQueue),
			infra.WithWebhookTimeout(cfg.WebhookTimeout),
			infra.WithWebhookResult(metrics.Notification),
		)
		notifier = d.notifier
	}

	d.tenants = infra.NewFileTenantRegistry(doc("games.json"))
	d.commands = &application.CommandLog{
		Store:        infra.NewFileLogStore(filepath.Join(cfg.DataDir, "logs.json"), cfg.ArchiveDir, logging.Component(logger, "commandlog")),
		Notifier:     notifier,
		Capacity:     cfg.LogCap,
		DefaultLimit: cfg.LogListLimit,
		MaxLimit:     cfg.LogListMax,
		Metrics:      metrics,
		Logger:       logging.Component(logger, "commandlog"),
	}
	d.queue = &application.ActionQueue{
		Store:   queueStore,
		Metrics: metrics,
		Logger:  logging.Component(logger, "queue"),
	}
	d.moderation = &application.Moderation{
		Queue: d.queue,
		Store: infra.NewFileModerationStore(doc("bans.json"), doc("warnings.json")),
	}
	return d, nil
}
