// Package app wires configuration into the matching stack shared by the
// server and the matchctl CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"bloodbridge/config"
	"bloodbridge/internal/adapters/auth"
	"bloodbridge/internal/adapters/broadcast"
	"bloodbridge/internal/adapters/email"
	"bloodbridge/internal/adapters/geo"
	"bloodbridge/internal/adapters/lock"
	"bloodbridge/internal/domain"
	"bloodbridge/internal/metrics"
	"bloodbridge/internal/repository/postgres"
	"bloodbridge/internal/services"
	"bloodbridge/internal/usecase"
)

// App holds the wired dependencies and the resources that must be closed.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *sql.DB
	Redis    *redis.Client
	Dispatch domain.DispatchUseCase
	Issuer   domain.TokenIssuer
	Verifier domain.TokenVerifier

	closers []func()
}

// New connects to Postgres and the optional Redis and Kafka, then builds the
// matching engine, the notifier and the dispatch use case. Metrics register on reg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, func() { _ = db.Close() })
	if err := db.PingContext(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	locker, err := a.buildLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	broadcaster, err := a.buildBroadcaster()
	if err != nil {
		a.Close()
		return nil, err
	}
	mailer, err := email.NewMailer(MailerConfig(cfg.Email), logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load email templates: %w", err)
	}

	matchMetrics := metrics.NewMatching(reg)
	engine := services.NewMatchingService(
		postgres.NewDonorRepository(db),
		postgres.NewResponseHistoryRepository(db),
		geo.Haversine,
		MatchingConfig(cfg.Match),
		logger,
		services.WithMetrics(matchMetrics),
	)
	notifier := services.NewDonorAlertNotifier(
		broadcaster,
		services.NewEmailService(mailer, renderer, logger),
		postgres.NewNotificationRepository(db),
		logger,
		matchMetrics,
	)
	a.Dispatch = usecase.NewDispatchUseCase(
		postgres.NewBloodRequestRepository(db),
		engine,
		notifier,
		locker,
		logger,
		usecase.DispatchConfig{Timeout: cfg.UseCaseTimeout, LockTTL: cfg.Match.LockTTL},
	)

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is empty; tokens are signed with an empty key")
	}
	a.Issuer = auth.NewJWTIssuer(cfg.JWTSecret)
	a.Verifier = auth.NewJWTVerifier(cfg.JWTSecret)
	return a, nil
}

func (a *App) buildLocker(ctx context.Context) (domain.RequestLocker, error) {
	client, err := lock.NewRedisClient(ctx, lock.RedisConfig{URL: a.Config.Redis.URL})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if client == nil {
		a.Logger.Info("REDIS_URL not set, using in-process request locks")
		return lock.NewMemoryLocker(), nil
	}
	a.Redis = client
	a.closers = append(a.closers, func() { _ = client.Close() })
	return lock.NewRedisLocker(client), nil
}

func (a *App) buildBroadcaster() (domain.Broadcaster, error) {
	if len(a.Config.Kafka.Brokers) == 0 {
		a.Logger.Info("KAFKA_BROKERS not set, urgent alerts are logged only")
		return broadcast.NewNoopBroadcaster(a.Logger), nil
	}
	b, err := broadcast.NewKafkaBroadcaster(broadcast.KafkaConfig{
		Brokers: a.Config.Kafka.Brokers,
		Topic:   a.Config.Kafka.AlertTopic,
	}, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("create kafka broadcaster: %w", err)
	}
	a.closers = append(a.closers, b.Close)
	return b, nil
}

// HealthChecks returns the dependency pings served by /healthz.
func (a *App) HealthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"database": a.DB.PingContext,
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

// Close releases resources in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// MatchingConfig maps the MATCH_* settings onto the engine policy.
func MatchingConfig(c config.MatchConfig) services.MatchingConfig {
	out := services.DefaultMatchingConfig()
	if c.SearchTimeout > 0 {
		out.SearchTimeout = c.SearchTimeout
	}
	if c.MaxRadiusKm > 0 {
		out.MaxRadiusKm = c.MaxRadiusKm
	}
	if c.HistoryConcurrency > 0 {
		out.HistoryConcurrency = c.HistoryConcurrency
	}
	out.HistoryDefaults = domain.HistoryDefaults{
		ResponseRate:       c.FallbackResponseRate,
		AvgResponseMinutes: c.FallbackResponseMinutes,
		CompletionRate:     c.FallbackCompletionRate,
	}
	return out
}

// MailerConfig maps the EMAIL_* and AWS_* settings onto the mailer.
func MailerConfig(c config.EmailConfig) email.MailerConfig {
	return email.MailerConfig{
		Provider:    c.Provider,
		FromAddress: c.FromAddress,
		FromName:    c.FromName,
		SES: email.SESConfig{
			Region:          c.AWSRegion,
			AccessKeyID:     c.AWSAccessKeyID,
			SecretAccessKey: c.AWSSecretAccessKey,
		},
	}
}

// ErrNoBrokers is returned by EnsureAlertTopic when Kafka is not configured.
var ErrNoBrokers = errors.New("KAFKA_BROKERS is not set")

// EnsureAlertTopic creates the urgent alert topic with a single partition.
func EnsureAlertTopic(ctx context.Context, cfg *config.Config) error {
	if len(cfg.Kafka.Brokers) == 0 {
		return ErrNoBrokers
	}
	return broadcast.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.AlertTopic, 1, 1)
}
