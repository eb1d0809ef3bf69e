package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/fx"

	"github.com/robertasolimandonofreo/rankbot/internal"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fx.New(
		internal.Module,
		fx.Invoke(run),
	).Run()
}

func run(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *internal.Config,
	logger *internal.Logger,
	validator internal.StartupValidator,
	session *discordgo.Session,
	router *internal.EventRouter,
	metrics *internal.MetricsCollector,
	ops *http.Server,
) {
	metricsCtx, stopMetrics := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := internal.ValidateStartup(ctx, cfg, validator); err != nil {
				logger.Error("startup_validation_failed").
					Component("main").
					Operation("validate").
					Err(err).
					Log()
				return err
			}

			router.Attach(session)
			if err := session.Open(); err != nil {
				logger.Error("gateway_open_failed").
					Component("main").
					Operation("open_session").
					Err(err).
					Log()
				return err
			}

			metrics.Start(metricsCtx)

			go func() {
				logger.Info("ops_server_starting").
					Component("main").
					Operation("serve").
					Meta("addr", ops.Addr).
					Log()
				if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("ops_server_failed").
						Component("main").
						Operation("serve").
						Err(err).
						Log()
					shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			logger.Info("bot_started").
				Component("main").
				Operation("start").
				Meta("guild_id", cfg.DiscordGuildID).
				Meta("environment", cfg.AppEnv).
				Log()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("bot_stopping").
				Component("main").
				Operation("stop").
				Log()
			stopMetrics()

			if err := session.Close(); err != nil {
				logger.Warn("gateway_close_failed").
					Component("main").
					Operation("stop").
					Err(err).
					Log()
			}

			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return ops.Shutdown(shutdownCtx)
		},
	})
}
