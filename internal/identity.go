package internal

import (
	"fmt"
	"strings"
)

type IdentityKind int

const (
	KindUnknown IdentityKind = iota
	KindRiotHandle
	KindSummonerID
	KindPlayerRecord
)

func (k IdentityKind) String() string {
	switch k {
	case KindRiotHandle:
		return "riot_handle"
	case KindSummonerID:
		return "summoner_id"
	case KindPlayerRecord:
		return "player_record"
	default:
		return "unknown"
	}
}

// Identity names a player to the provider. Only the fields of its Kind are set.
// A riot handle may already be resolved, in which case PUUID is filled and the
// name parts may be empty.
type Identity struct {
	Kind       IdentityKind
	GameName   string
	TagLine    string
	PUUID      string
	SummonerID string
	Player     *Player
}

// ParseRiotHandle splits "Name#Tag" on the first '#'.
func ParseRiotHandle(raw string) (Identity, error) {
	name, tag, ok := strings.Cut(strings.TrimSpace(raw), "#")
	if !ok || name == "" || tag == "" {
		return Identity{}, &InvalidArgumentError{Message: fmt.Sprintf("invalid riot handle %q, expected Name#Tag", raw)}
	}
	return Identity{Kind: KindRiotHandle, GameName: name, TagLine: tag}, nil
}

func ResolvedHandle(puuid string) Identity {
	return Identity{Kind: KindRiotHandle, PUUID: puuid}
}

func SummonerIDIdentity(summonerID string) Identity {
	return Identity{Kind: KindSummonerID, SummonerID: summonerID}
}

func PlayerIdentity(p *Player) Identity {
	return Identity{Kind: KindPlayerRecord, Player: p}
}

func (id Identity) Resolved() bool {
	return id.Kind == KindRiotHandle && id.PUUID != ""
}

func (id Identity) String() string {
	switch id.Kind {
	case KindRiotHandle:
		if id.GameName != "" {
			return id.GameName + "#" + id.TagLine
		}
		return id.PUUID
	case KindSummonerID:
		return id.SummonerID
	case KindPlayerRecord:
		if id.Player != nil {
			return id.Player.DiscordID
		}
	}
	return ""
}
