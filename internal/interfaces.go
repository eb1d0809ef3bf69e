package internal

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// ProviderAPI is the provider surface handed to scheduled tasks. Command code
// never holds it outside a task closure.
type ProviderAPI interface {
	FetchJSON(ctx context.Context, rawURL string) (ProviderResponse, error)
	ResolveRiotID(ctx context.Context, id Identity) (ProviderResponse, error)
	ResolveSummonerPUUID(ctx context.Context, id Identity) (ProviderResponse, error)
	FetchRankedEntries(ctx context.Context, summonerID string) RankedLookup
}

// StartupValidator runs the one-shot configuration checks before traffic.
type StartupValidator interface {
	ValidateGuildExists(ctx context.Context, guildID string) error
	ValidateChannelExists(ctx context.Context, channelID, guildID string) error
	ValidateProviderToken(ctx context.Context) error
}

var (
	_ ProviderAPI      = (*APIClient)(nil)
	_ StartupValidator = (*APIClient)(nil)
)

type WindowGate interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type EventPublisher interface {
	PublishProviderDegraded(evt ProviderDegradedEvent) error
	PublishRankCompleted(evt RankCompletedEvent) error
}

type PlayerStore interface {
	GetPlayerByDiscordID(ctx context.Context, discordID string) (*Player, error)
	SavePlayer(ctx context.Context, p *Player) error
}

// RankResolver turns an identity into a reply. It runs inside a scheduled
// task and reaches the provider only through api.
type RankResolver interface {
	ResolveRank(ctx context.Context, inv *Invocation, id Identity, api ProviderAPI) (RankOutcome, error)
}

// Replier answers an invocation. Defer acknowledges it ahead of a slow answer
// and marks it Deferred.
type Replier interface {
	Defer(inv *Invocation) error
	Reply(inv *Invocation, reply ReplyResult, buttonLabel string) error
}

type RoleAssigner interface {
	Init(ctx context.Context) error
	Assign(ctx context.Context, guildID, userID, tier string) error
}

type CommandRegistrar interface {
	Register(appID string) error
}

// DiscordSession is the subset of *discordgo.Session the bot uses.
type DiscordSession interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UpdateGameStatus(idle int, name string) error
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

var _ DiscordSession = (*discordgo.Session)(nil)
