package internal

import (
	"context"
	"errors"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// EventRouter turns platform events into command invocations.
type EventRouter struct {
	session   DiscordSession
	scheduler *Scheduler
	store     PlayerStore
	pipeline  *Pipeline
	locale    Localizer
	roles     RoleAssigner
	registrar CommandRegistrar
	status    string
	logger    *Logger

	readyOnce sync.Once
}

func NewEventRouter(cfg *Config, session DiscordSession, scheduler *Scheduler, store PlayerStore, pipeline *Pipeline, locale Localizer, roles RoleAssigner, registrar CommandRegistrar, logger *Logger) *EventRouter {
	return &EventRouter{
		session:   session,
		scheduler: scheduler,
		store:     store,
		pipeline:  pipeline,
		locale:    locale,
		roles:     roles,
		registrar: registrar,
		status:    cfg.BotStatus,
		logger:    logger,
	}
}

// Attach subscribes the router to the gateway session.
func (r *EventRouter) Attach(s *discordgo.Session) {
	s.AddHandlerOnce(func(_ *discordgo.Session, ev *discordgo.Ready) {
		r.HandleReady(context.Background(), ev)
	})
	s.AddHandler(func(_ *discordgo.Session, ev *discordgo.InteractionCreate) {
		r.HandleInteraction(context.Background(), ev)
	})
}

// HandleReady runs once per process. Failures are logged and not retried.
func (r *EventRouter) HandleReady(ctx context.Context, ev *discordgo.Ready) {
	r.readyOnce.Do(func() {
		r.logger.Info("gateway_ready").
			Component("router").
			Operation("ready").
			Log()

		if err := r.bootstrap(ctx, ev); err != nil {
			r.logger.Error("module_initialization_failed").
				Component("router").
				Operation("ready").
				Err(err).
				Log()
			return
		}

		r.logger.Info("modules_initialized").
			Component("router").
			Operation("ready").
			Log()
	})
}

func (r *EventRouter) bootstrap(ctx context.Context, ev *discordgo.Ready) error {
	if r.status != "" {
		if err := r.session.UpdateGameStatus(0, r.status); err != nil {
			r.logger.Warn("status_update_failed").
				Component("router").
				Operation("ready").
				Err(err).
				Log()
		}
	}

	if r.roles != nil {
		if err := r.roles.Init(ctx); err != nil {
			return err
		}
	}

	if r.registrar != nil {
		appID := readyApplicationID(ev)
		if appID == "" {
			return errors.New("ready event carries no application id")
		}
		if err := r.registrar.Register(appID); err != nil {
			return err
		}
	}
	return nil
}

func readyApplicationID(ev *discordgo.Ready) string {
	if ev == nil {
		return ""
	}
	if ev.Application != nil && ev.Application.ID != "" {
		return ev.Application.ID
	}
	if ev.User != nil {
		return ev.User.ID
	}
	return ""
}

func (r *EventRouter) HandleInteraction(ctx context.Context, ev *discordgo.InteractionCreate) {
	if ev == nil || ev.Interaction == nil {
		return
	}
	confirmLabel := r.locale.Lookup(KeyConfirm)

	class, arg := classifyInteraction(ev.Interaction, confirmLabel)
	switch class {
	case interactionConfirm:
		inv := newInvocation(ev.Interaction, SourceConfirmButton, CommandRank)
		r.handleConfirm(ctx, inv, confirmLabel)
	case interactionRankCommand:
		inv := newInvocation(ev.Interaction, SourceSlashCommand, CommandRank)
		r.pipeline.ExecuteCommand(ctx, CommandRank, []string{arg}, inv, confirmLabel)
	}
}

// handleConfirm re-runs rank for the player stored against the invoking user.
func (r *EventRouter) handleConfirm(ctx context.Context, inv *Invocation, confirmLabel string) {
	r.pipeline.acknowledge(inv)

	player, err := r.store.GetPlayerByDiscordID(ctx, inv.UserID)
	if err != nil {
		r.logger.Warn("confirm_player_lookup_failed").
			Component("router").
			Operation("confirm").
			Interaction(inv.ID, inv.UserID, inv.GuildID).
			Err(err).
			Log()
		if errors.Is(err, ErrPlayerNotFound) {
			r.pipeline.deliver(inv, ReplyResult{Text: r.locale.Lookup(KeyPlayerNotFound), Kind: ReplyInformational}, "")
		}
		return
	}

	puuid, err := Schedule(ctx, r.scheduler, func(ctx context.Context, api ProviderAPI) (string, error) {
		resp, err := api.ResolveRiotID(ctx, PlayerIdentity(player))
		if err != nil {
			return "", err
		}
		id := resp.Field("puuid")
		if id == "" {
			return "", errors.New("summoner response carries no puuid")
		}
		return id, nil
	})
	if err != nil {
		r.logger.Warn("confirm_identity_resolution_failed").
			Component("router").
			Operation("confirm").
			Interaction(inv.ID, inv.UserID, inv.GuildID).
			Err(err).
			Log()
		return
	}

	r.pipeline.ExecuteCommand(ctx, CommandRank, []string{puuid}, inv, confirmLabel)
}
