package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// LeagueRankResolver looks a player up, stores the link to the invoking user
// and applies the tier role.
type LeagueRankResolver struct {
	store  PlayerStore
	roles  RoleAssigner
	locale Localizer
	region string
	logger *Logger
}

func NewLeagueRankResolver(cfg *Config, store PlayerStore, roles RoleAssigner, locale Localizer, logger *Logger) *LeagueRankResolver {
	return &LeagueRankResolver{
		store:  store,
		roles:  roles,
		locale: locale,
		region: cfg.RiotRegion,
		logger: logger,
	}
}

func (r *LeagueRankResolver) ResolveRank(ctx context.Context, inv *Invocation, id Identity, api ProviderAPI) (RankOutcome, error) {
	account := AccountData{PUUID: id.PUUID, GameName: id.GameName, TagLine: id.TagLine}
	if !id.Resolved() {
		resp, err := api.ResolveRiotID(ctx, id)
		if err != nil {
			return r.notFoundOr(err)
		}
		if err := resp.Decode(&account); err != nil {
			return RankOutcome{}, fmt.Errorf("decode account: %w", err)
		}
	}

	resp, err := api.ResolveSummonerPUUID(ctx, ResolvedHandle(account.PUUID))
	if err != nil {
		return r.notFoundOr(err)
	}
	var summoner Summoner
	if err := resp.Decode(&summoner); err != nil {
		return RankOutcome{}, fmt.Errorf("decode summoner: %w", err)
	}

	previous, err := r.store.GetPlayerByDiscordID(ctx, inv.UserID)
	if err != nil && !errors.Is(err, ErrPlayerNotFound) {
		return RankOutcome{}, err
	}
	name := displayName(account, previous)

	lookup := api.FetchRankedEntries(ctx, summoner.ID)
	if lookup.Degraded {
		return RankOutcome{Text: lookup.Fallback, Kind: ReplyInformational}, nil
	}

	var entries []LeagueEntry
	if err := lookup.Entries.Decode(&entries); err != nil {
		return RankOutcome{}, fmt.Errorf("decode ranked entries: %w", err)
	}
	if len(entries) == 0 {
		return RankOutcome{Text: fmt.Sprintf("%s %s.", name, r.locale.Lookup(KeyUnranked)), Kind: ReplyInformational}, nil
	}
	solo, err := lookup.SoloEntry()
	if err != nil {
		return RankOutcome{}, err
	}
	if solo == nil {
		return RankOutcome{Text: r.locale.Lookup(KeyNoRankedData), Kind: ReplyInformational}, nil
	}

	if previous != nil && previous.PUUID == account.PUUID && previous.Tier == solo.Tier && previous.Division == solo.Rank {
		text := fmt.Sprintf("%s %s %s: %s.", name, titleCase(solo.Tier), solo.Rank, r.locale.Lookup(KeyAlreadyAssigned))
		return RankOutcome{Text: text, Kind: ReplyInformational}, nil
	}

	player := &Player{
		DiscordID:  inv.UserID,
		SummonerID: summoner.ID,
		PUUID:      account.PUUID,
		GameName:   account.GameName,
		TagLine:    account.TagLine,
		Region:     r.region,
		Tier:       solo.Tier,
		Division:   solo.Rank,
	}
	if player.GameName == "" && previous != nil {
		player.GameName, player.TagLine = previous.GameName, previous.TagLine
	}
	if err := r.store.SavePlayer(ctx, player); err != nil {
		return RankOutcome{}, err
	}

	if r.roles != nil {
		if err := r.roles.Assign(ctx, inv.GuildID, inv.UserID, solo.Tier); err != nil {
			r.logger.Warn("role_assignment_failed").
				Component("resolver").
				Operation("assign_role").
				Interaction(inv.ID, inv.UserID, inv.GuildID).
				Game(account.PUUID, r.region, solo.Tier).
				Err(err).
				Log()
		}
	}

	r.logger.Info("rank_resolved").
		Component("resolver").
		Operation("resolve_rank").
		Interaction(inv.ID, inv.UserID, inv.GuildID).
		Game(account.PUUID, r.region, solo.Tier).
		Log()

	text := fmt.Sprintf(r.locale.Lookup(KeyRankResult), name, titleCase(solo.Tier), solo.Rank, solo.LeaguePoints, solo.WinRate())
	return RankOutcome{Text: text, Kind: ReplyActionable}, nil
}

func (r *LeagueRankResolver) notFoundOr(err error) (RankOutcome, error) {
	if StatusCodeOf(err) == http.StatusNotFound {
		return RankOutcome{Text: r.locale.Lookup(KeyPlayerNotFound), Kind: ReplyInformational}, nil
	}
	return RankOutcome{}, err
}

func displayName(account AccountData, previous *Player) string {
	if account.GameName != "" {
		return account.GameName + "#" + account.TagLine
	}
	if previous != nil && previous.GameName != "" {
		return previous.GameName + "#" + previous.TagLine
	}
	return account.PUUID
}
