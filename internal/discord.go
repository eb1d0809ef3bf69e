package internal

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Tiers in ladder order. Guild roles named after a tier (case-insensitive)
// are the ones the bot manages.
var rankedTiers = []string{
	"IRON", "BRONZE", "SILVER", "GOLD", "PLATINUM", "EMERALD",
	"DIAMOND", "MASTER", "GRANDMASTER", "CHALLENGER",
}

func NewDiscordSession(cfg *Config) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	return s, nil
}

// InteractionReplier answers an interaction in its channel, attaching a
// single confirm button to actionable replies.
type InteractionReplier struct {
	session DiscordSession
}

func NewInteractionReplier(session DiscordSession) *InteractionReplier {
	return &InteractionReplier{session: session}
}

// Defer acknowledges the interaction so the platform keeps it open while the
// scheduled work runs.
func (r *InteractionReplier) Defer(inv *Invocation) error {
	if inv == nil || inv.Interaction == nil {
		return fmt.Errorf("invocation has no interaction to acknowledge")
	}
	err := r.session.InteractionRespond(inv.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return err
	}
	inv.Deferred = true
	return nil
}

func (r *InteractionReplier) Reply(inv *Invocation, reply ReplyResult, buttonLabel string) error {
	if inv == nil || inv.Interaction == nil {
		return fmt.Errorf("invocation has no interaction to answer")
	}
	var components []discordgo.MessageComponent
	if reply.Interactive() && buttonLabel != "" {
		components = []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    buttonLabel,
						Style:    discordgo.PrimaryButton,
						CustomID: confirmButtonID,
					},
				},
			},
		}
	}

	if inv.Deferred {
		_, err := r.session.FollowupMessageCreate(inv.Interaction, true, &discordgo.WebhookParams{
			Content:    reply.Text,
			Components: components,
		})
		return err
	}
	return r.session.InteractionRespond(inv.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    reply.Text,
			Components: components,
		},
	})
}

// SlashCommandRegistrar publishes the bot's commands to the configured guild.
type SlashCommandRegistrar struct {
	session DiscordSession
	guildID string
	logger  *Logger
}

func NewSlashCommandRegistrar(cfg *Config, session DiscordSession, logger *Logger) *SlashCommandRegistrar {
	return &SlashCommandRegistrar{session: session, guildID: cfg.DiscordGuildID, logger: logger}
}

func rankCommandDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        CommandRank,
		Description: "Look up your ranked solo queue standing",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        rankOptionRiotID,
				Description: "Riot ID as Name#Tag",
				Required:    true,
			},
		},
	}
}

func (r *SlashCommandRegistrar) Register(appID string) error {
	cmds := []*discordgo.ApplicationCommand{rankCommandDefinition()}
	if _, err := r.session.ApplicationCommandBulkOverwrite(appID, r.guildID, cmds); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	r.logger.Info("commands_registered").
		Component("discord").
		Operation("register_commands").
		Meta("count", len(cmds)).
		Meta("guild_id", r.guildID).
		Log()
	return nil
}

// GuildRoleAssigner keeps a member's tier role in line with their rank.
type GuildRoleAssigner struct {
	session DiscordSession
	guildID string
	logger  *Logger

	mu    sync.RWMutex
	roles map[string]string
}

func NewGuildRoleAssigner(cfg *Config, session DiscordSession, logger *Logger) *GuildRoleAssigner {
	return &GuildRoleAssigner{
		session: session,
		guildID: cfg.DiscordGuildID,
		logger:  logger,
		roles:   make(map[string]string),
	}
}

// Init loads the guild's tier roles. Tiers without a role are skipped on
// assignment.
func (a *GuildRoleAssigner) Init(ctx context.Context) error {
	roles, err := a.session.GuildRoles(a.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("load guild roles: %w", err)
	}

	found := make(map[string]string)
	for _, role := range roles {
		name := strings.ToUpper(strings.TrimSpace(role.Name))
		for _, tier := range rankedTiers {
			if name == tier {
				found[tier] = role.ID
			}
		}
	}

	a.mu.Lock()
	a.roles = found
	a.mu.Unlock()

	a.logger.Info("tier_roles_loaded").
		Component("discord").
		Operation("init_roles").
		Meta("count", len(found)).
		Log()
	return nil
}

func (a *GuildRoleAssigner) Assign(ctx context.Context, guildID, userID, tier string) error {
	if guildID == "" {
		guildID = a.guildID
	}
	tier = strings.ToUpper(tier)

	a.mu.RLock()
	target, ok := a.roles[tier]
	others := make([]string, 0, len(a.roles))
	for t, id := range a.roles {
		if t != tier {
			others = append(others, id)
		}
	}
	a.mu.RUnlock()

	if !ok {
		a.logger.Debug("tier_role_missing").
			Component("discord").
			Operation("assign_role").
			Meta("tier", tier).
			Log()
		return nil
	}

	for _, id := range others {
		if err := a.session.GuildMemberRoleRemove(guildID, userID, id, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("remove role %s: %w", id, err)
		}
	}
	if err := a.session.GuildMemberRoleAdd(guildID, userID, target, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add role %s: %w", target, err)
	}
	return nil
}

var (
	_ Replier          = (*InteractionReplier)(nil)
	_ CommandRegistrar = (*SlashCommandRegistrar)(nil)
	_ RoleAssigner     = (*GuildRoleAssigner)(nil)
	_ RankResolver     = (*LeagueRankResolver)(nil)
	_ PlayerStore      = (*DatabaseManager)(nil)
	_ EventPublisher   = (*NATSClient)(nil)
	_ WindowGate       = (*RateLimiter)(nil)
)
