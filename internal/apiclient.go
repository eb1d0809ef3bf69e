package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	riotTokenHeader     = "X-Riot-Token"
	providerHTTPTimeout = 10 * time.Second
	maxResponseBytes    = 4 << 20
)

// APIClient talks to the game-statistics provider and to the messaging
// platform's REST API. Its fields are written once in NewAPIClient and only
// read afterwards, so one instance is shared by every goroutine.
type APIClient struct {
	riotToken    string
	discordToken string
	region       string
	helpChannel  string

	providerHost string
	accountHost  string
	discordHost  string

	client    *http.Client
	cache     *CacheManager
	window    *windowWaiter
	logger    *Logger
	metrics   *MetricsCollector
	locale    Localizer
	publisher EventPublisher
}

func NewAPIClient(cfg *Config, cache *CacheManager, gate WindowGate, logger *Logger, metrics *MetricsCollector, locale Localizer, publisher EventPublisher) *APIClient {
	return &APIClient{
		riotToken:    cfg.RiotAPIKey,
		discordToken: cfg.DiscordToken,
		region:       cfg.RiotRegion,
		helpChannel:  cfg.HelpChannel,
		providerHost: cfg.ProviderHost(),
		accountHost:  cfg.AccountHost(),
		discordHost:  strings.TrimRight(cfg.DiscordAPIURL, "/"),
		client: &http.Client{
			Timeout: providerHTTPTimeout,
		},
		cache:     cache,
		window:    newWindowWaiter(gate, providerWindowKey, logger),
		logger:    logger,
		metrics:   metrics,
		locale:    locale,
		publisher: publisher,
	}
}

// FetchJSON issues an authenticated GET and returns the decoded payload.
func (c *APIClient) FetchJSON(ctx context.Context, rawURL string) (ProviderResponse, error) {
	return c.get(ctx, "fetch_json", rawURL)
}

// ResolveRiotID looks up an account by riot handle on the region-wide host, or
// a summoner by the stored identifier of a player record on the regional host.
func (c *APIClient) ResolveRiotID(ctx context.Context, id Identity) (ProviderResponse, error) {
	switch id.Kind {
	case KindRiotHandle:
		if id.GameName == "" || id.TagLine == "" {
			return nil, &InvalidArgumentError{Message: "Invalid riot handle. Expected Name#Tag."}
		}
		key := c.cache.Key("account", strings.ToLower(id.GameName), strings.ToLower(id.TagLine))
		endpoint := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
			c.accountHost, url.PathEscape(id.GameName), url.PathEscape(id.TagLine))
		return c.cachedGet(ctx, key, accountCacheTTL, "account_by_riot_id", endpoint)
	case KindPlayerRecord:
		if id.Player == nil {
			return nil, &InvalidArgumentError{Message: "Invalid player record."}
		}
		return c.summonerByPUUID(ctx, id.Player.lookupID())
	default:
		return nil, &InvalidArgumentError{Message: "Invalid type. Expected riot handle or player."}
	}
}

// ResolveSummonerPUUID fetches the summoner for an identity that already
// carries a provider identifier.
func (c *APIClient) ResolveSummonerPUUID(ctx context.Context, id Identity) (ProviderResponse, error) {
	switch id.Kind {
	case KindSummonerID:
		return c.summonerByPUUID(ctx, id.SummonerID)
	case KindRiotHandle:
		if !id.Resolved() {
			return nil, &InvalidArgumentError{Message: "Riot handle must be resolved to a puuid first."}
		}
		return c.summonerByPUUID(ctx, id.PUUID)
	case KindPlayerRecord:
		if id.Player == nil {
			return nil, &InvalidArgumentError{Message: "Invalid player record."}
		}
		return c.summonerByPUUID(ctx, id.Player.lookupID())
	default:
		return nil, &InvalidArgumentError{Message: "Invalid type. Expected summoner id, resolved riot handle or player."}
	}
}

func (c *APIClient) summonerByPUUID(ctx context.Context, value string) (ProviderResponse, error) {
	if value == "" {
		return nil, &InvalidArgumentError{Message: "Missing summoner identifier."}
	}
	endpoint := fmt.Sprintf("%s/lol/summoner/v4/summoners/by-puuid/%s", c.providerHost, url.PathEscape(value))
	return c.cachedGet(ctx, c.cache.Key("summoner", c.region, value), summonerCacheTTL, "summoner_by_puuid", endpoint)
}

// FetchRankedEntries never fails: a provider failure degrades to a localized
// message, and the failure is logged, counted and published so operators can
// tell it apart from a normal answer.
func (c *APIClient) FetchRankedEntries(ctx context.Context, summonerID string) RankedLookup {
	endpoint := fmt.Sprintf("%s/lol/league/v4/entries/by-summoner/%s", c.providerHost, url.PathEscape(summonerID))

	entries, err := c.get(ctx, "league_entries_by_summoner", endpoint)
	if err == nil {
		return RankedLookup{Entries: entries}
	}

	c.logger.Warn("ranked_data_degraded").
		Component("api_client").
		Operation("fetch_ranked_entries").
		Game("", c.region, "").
		Err(err).
		ErrorCode(fmt.Sprint(StatusCodeOf(err))).
		Meta("summoner_id", summonerID).
		Log()
	c.metrics.RecordDegradedLookup()

	if c.publisher != nil {
		evt := ProviderDegradedEvent{
			Endpoint:   "league_entries_by_summoner",
			Region:     c.region,
			StatusCode: StatusCodeOf(err),
			Error:      err.Error(),
			OccurredAt: time.Now().UTC(),
		}
		if pubErr := c.publisher.PublishProviderDegraded(evt); pubErr != nil {
			c.logger.Error("degraded_event_publish_failed").
				Component("api_client").
				Operation("fetch_ranked_entries").
				Err(pubErr).
				Log()
		}
	}

	return RankedLookup{
		Fallback: c.locale.Lookup(KeyRankFetchFailed) + c.helpChannel + "!",
		Degraded: true,
	}
}

func (c *APIClient) ValidateGuildExists(ctx context.Context, guildID string) error {
	_, err := c.get(ctx, "discord_guild", fmt.Sprintf("%s/guilds/%s", c.discordHost, url.PathEscape(guildID)))
	if err != nil {
		return &ValidationError{Target: "guild ID", Value: guildID, Detail: upstreamDetail(err), Err: err}
	}

	c.logger.Info("guild_validated").
		Component("api_client").
		Operation("validate_guild").
		Meta("guild_id", guildID).
		Log()
	return nil
}

func (c *APIClient) ValidateChannelExists(ctx context.Context, channelID, guildID string) error {
	resp, err := c.get(ctx, "discord_guild_channels", fmt.Sprintf("%s/guilds/%s/channels", c.discordHost, url.PathEscape(guildID)))
	if err != nil {
		return &ValidationError{Target: "channel ID", Value: channelID, Detail: upstreamDetail(err), Err: err}
	}

	var channels []struct {
		ID string `json:"id"`
	}
	if err := resp.Decode(&channels); err != nil {
		return &ValidationError{Target: "channel ID", Value: channelID, Detail: err.Error(), Err: err}
	}

	for _, ch := range channels {
		if ch.ID == channelID {
			c.logger.Info("channel_validated").
				Component("api_client").
				Operation("validate_channel").
				Meta("channel_id", channelID).
				Meta("guild_id", guildID).
				Log()
			return nil
		}
	}

	return &ValidationError{
		Target: "channel ID",
		Value:  channelID,
		Detail: fmt.Sprintf("Channel ID %s does not exist in guild %s.", channelID, guildID),
	}
}

func (c *APIClient) ValidateProviderToken(ctx context.Context) error {
	_, err := c.get(ctx, "champion_rotations", c.providerHost+"/lol/platform/v3/champion-rotations")
	if err != nil {
		if StatusCodeOf(err) == http.StatusUnauthorized {
			return &ValidationError{Target: "token", Err: err}
		}
		return &ValidationError{Target: "token", Detail: upstreamDetail(err), Err: err}
	}

	c.logger.Info("provider_token_validated").
		Component("api_client").
		Operation("validate_token").
		Log()
	return nil
}

func (c *APIClient) cachedGet(ctx context.Context, key string, ttl time.Duration, endpoint, rawURL string) (ProviderResponse, error) {
	var cached json.RawMessage
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return ProviderResponse(cached), nil
	}

	resp, err := c.get(ctx, endpoint, rawURL)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, json.RawMessage(resp), ttl); err != nil {
		c.logger.Warn("cache_set_failed").
			Component("api_client").
			Operation("cache_set").
			Err(err).
			Meta("key", key).
			Log()
	}
	return resp, nil
}

func (c *APIClient) get(ctx context.Context, endpoint, rawURL string) (ProviderResponse, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &InvalidArgumentError{Message: fmt.Sprintf("invalid url %q: %v", rawURL, err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &InvalidArgumentError{Message: err.Error()}
	}
	c.authenticate(req)

	// every provider request takes its own slot in the shared window
	if !c.isDiscordHost(u) {
		if err := c.window.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordProviderCall(endpoint, time.Since(start), 0)
		c.logger.Debug("provider_request_failed").
			Component("api_client").
			Operation(endpoint).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.metrics.RecordProviderCall(endpoint, time.Since(start), resp.StatusCode)

	c.logger.Debug("provider_request_completed").
		Component("api_client").
		Operation(endpoint).
		HTTP(http.MethodGet, u.Path, resp.StatusCode).
		Duration(time.Since(start)).
		Log()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(resp.StatusCode, string(body))
	}
	if readErr != nil {
		return nil, &NetworkError{Err: readErr}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%s: response is not valid JSON", endpoint)
	}
	return ProviderResponse(body), nil
}

// authenticate attaches the single credential that belongs to the target host.
func (c *APIClient) authenticate(req *http.Request) {
	if c.isDiscordHost(req.URL) {
		req.Header.Set("Authorization", "Bot "+c.discordToken)
		return
	}
	req.Header.Set(riotTokenHeader, c.riotToken)
}

func (c *APIClient) isDiscordHost(u *url.URL) bool {
	d, err := url.Parse(c.discordHost)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, d.Host)
}
