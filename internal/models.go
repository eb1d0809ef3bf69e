package internal

import (
	"encoding/json"
	"time"
)

// ProviderResponse is a provider payload kept opaque; callers decode the
// fields they need.
type ProviderResponse json.RawMessage

func (r ProviderResponse) Decode(v interface{}) error {
	return json.Unmarshal(r, v)
}

// Field returns a top-level string field, or "" when absent or not a string.
func (r ProviderResponse) Field(name string) string {
	var m map[string]interface{}
	if err := json.Unmarshal(r, &m); err != nil {
		return ""
	}
	s, _ := m[name].(string)
	return s
}

type AccountData struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type Summoner struct {
	ID            string `json:"id"`
	AccountID     string `json:"accountId"`
	PUUID         string `json:"puuid"`
	ProfileIconID int    `json:"profileIconId"`
	RevisionDate  int64  `json:"revisionDate"`
	SummonerLevel int    `json:"summonerLevel"`
}

type LeagueEntry struct {
	LeagueID     string      `json:"leagueId"`
	PUUID        string      `json:"puuid"`
	SummonerID   string      `json:"summonerId"`
	QueueType    string      `json:"queueType"`
	Tier         string      `json:"tier"`
	Rank         string      `json:"rank"`
	LeaguePoints int         `json:"leaguePoints"`
	Wins         int         `json:"wins"`
	Losses       int         `json:"losses"`
	HotStreak    bool        `json:"hotStreak"`
	Veteran      bool        `json:"veteran"`
	FreshBlood   bool        `json:"freshBlood"`
	Inactive     bool        `json:"inactive"`
	MiniSeries   *MiniSeries `json:"miniSeries,omitempty"`
}

const QueueRankedSolo = "RANKED_SOLO_5x5"

// WinRate is a percentage rounded down, 0 when no games were played.
func (le *LeagueEntry) WinRate() int {
	total := le.Wins + le.Losses
	if total == 0 {
		return 0
	}
	return le.Wins * 100 / total
}

type MiniSeries struct {
	Target   int    `json:"target"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Progress string `json:"progress"`
}

// RankedLookup is the outcome of a ranked-entries fetch. When Degraded is set
// the provider call failed and Fallback holds the user-facing message.
type RankedLookup struct {
	Entries  ProviderResponse
	Fallback string
	Degraded bool
}

// SoloEntry returns the solo queue entry, if any.
func (r RankedLookup) SoloEntry() (*LeagueEntry, error) {
	var entries []LeagueEntry
	if err := r.Entries.Decode(&entries); err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].QueueType == QueueRankedSolo {
			return &entries[i], nil
		}
	}
	return nil, nil
}

type ProviderDegradedEvent struct {
	Endpoint   string    `json:"endpoint"`
	Region     string    `json:"region"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurred_at"`
}

type RankCompletedEvent struct {
	InvocationID string    `json:"invocation_id"`
	UserID       string    `json:"user_id"`
	GuildID      string    `json:"guild_id"`
	ReplyKind    string    `json:"reply_kind"`
	DurationMS   int64     `json:"duration_ms"`
	CompletedAt  time.Time `json:"completed_at"`
}
