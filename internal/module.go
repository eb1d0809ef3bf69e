package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

const validationTimeout = 15 * time.Second

var Module = fx.Options(
	fx.Provide(LoadConfig),
	fx.Provide(NewLogger),
	fx.Provide(NewMetricsCollector),
	fx.Provide(provideLocalizer),
	// storage and shared state
	fx.Provide(provideRedis),
	fx.Provide(NewCacheManager),
	fx.Provide(provideWindowGate),
	fx.Provide(provideStore),
	fx.Provide(providePublisher),
	// provider access
	fx.Provide(NewAPIClient),
	fx.Provide(func(c *APIClient) StartupValidator { return c }),
	fx.Provide(provideScheduler),
	// discord
	fx.Provide(NewDiscordSession),
	fx.Provide(func(s *discordgo.Session) DiscordSession { return s }),
	fx.Provide(fx.Annotate(NewInteractionReplier, fx.As(new(Replier)))),
	fx.Provide(fx.Annotate(NewSlashCommandRegistrar, fx.As(new(CommandRegistrar)))),
	fx.Provide(fx.Annotate(NewGuildRoleAssigner, fx.As(new(RoleAssigner)))),
	// commands
	fx.Provide(fx.Annotate(NewLeagueRankResolver, fx.As(new(RankResolver)))),
	fx.Provide(NewPipeline),
	fx.Provide(NewEventRouter),
	// ops
	fx.Provide(provideHealthChecks),
	fx.Provide(NewOpsServer),
)

func provideLocalizer(cfg *Config) (Localizer, error) {
	return LoadStringTable(cfg.LocaleFile)
}

// provideRedis returns nil when neither the cache nor the shared window
// needs Redis.
func provideRedis(lc fx.Lifecycle, cfg *Config) *redis.Client {
	if !cfg.CacheEnabled && !cfg.RateLimitEnabled {
		return nil
	}
	client := NewRedisClient(cfg)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

func provideWindowGate(cfg *Config, client *redis.Client, logger *Logger) WindowGate {
	if !cfg.RateLimitEnabled || client == nil {
		return nil
	}
	return NewRateLimiter(cfg, client, logger)
}

func provideStore(lc fx.Lifecycle, cfg *Config, logger *Logger) (*DatabaseManager, PlayerStore, error) {
	dm, err := NewDatabaseManager(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return dm.Close()
		},
	})
	return dm, dm, nil
}

func providePublisher(lc fx.Lifecycle, cfg *Config, logger *Logger) (EventPublisher, error) {
	if !cfg.NATSEnabled {
		return noopPublisher{}, nil
	}
	nc, err := NewNATSClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	logger.Info("nats_connected").
		Component("nats").
		Operation("connect").
		Meta("url", cfg.NATSUrl).
		Log()
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			nc.Close()
			return nil
		},
	})
	return nc, nil
}

func provideScheduler(lc fx.Lifecycle, cfg *Config, api *APIClient, logger *Logger, metrics *MetricsCollector) *Scheduler {
	s := NewScheduler(SchedulerOptions{
		MaxConcurrent: cfg.SchedulerMaxConcurrent,
		MinTime:       cfg.SchedulerMinTime,
	}, api, logger, metrics)
	lc.Append(fx.Hook{
		OnStop: s.Stop,
	})
	return s
}

func provideHealthChecks(dm *DatabaseManager, client *redis.Client, publisher EventPublisher) map[string]HealthCheck {
	checks := map[string]HealthCheck{
		"database": func(ctx context.Context) error { return dm.DB.PingContext(ctx) },
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	if nc, ok := publisher.(*NATSClient); ok {
		checks["nats"] = nc.Ping
	}
	return checks
}

// ValidateStartup runs the guild, channel and token checks concurrently and
// returns the first failure.
func ValidateStartup(ctx context.Context, cfg *Config, v StartupValidator) error {
	ctx, cancel := context.WithTimeout(ctx, validationTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return v.ValidateGuildExists(ctx, cfg.DiscordGuildID)
	})
	g.Go(func() error {
		return v.ValidateChannelExists(ctx, cfg.DiscordChannelID, cfg.DiscordGuildID)
	})
	g.Go(func() error {
		return v.ValidateProviderToken(ctx)
	})
	return g.Wait()
}
