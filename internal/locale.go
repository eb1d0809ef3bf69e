package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	KeyConfirm         = "confirm"
	KeyNoRankedData    = "no-ranked-data"
	KeyAlreadyAssigned = "already-assigned"
	KeyUnranked        = "unranked"
	KeyRankFetchFailed = "rank-fetch-failed"
	KeyRankResult      = "rank-result"
	KeyPlayerNotFound  = "player-not-found"
	KeyInvalidHandle   = "invalid-handle"
)

type Localizer interface {
	Lookup(key string) string
}

// StringTable is a flat key to text map. Unknown keys resolve to the key.
type StringTable map[string]string

var defaultStrings = StringTable{
	KeyConfirm:         "Confirm",
	KeyNoRankedData:    "No ranked data found for this player.",
	KeyAlreadyAssigned: "already assigned",
	KeyUnranked:        "is unranked",
	KeyRankFetchFailed: "Could not fetch ranked data right now. If this keeps happening ask in ",
	KeyRankResult:      "%s is %s %s with %d LP (%d%% win rate). Press confirm to refresh your role later.",
	KeyPlayerNotFound:  "Player not found. Check the Riot ID and try again.",
	KeyInvalidHandle:   "Use your Riot ID in the form Name#Tag.",
}

func DefaultStringTable() StringTable {
	t := make(StringTable, len(defaultStrings))
	for k, v := range defaultStrings {
		t[k] = v
	}
	return t
}

// LoadStringTable reads a JSON object of strings from path and layers it over
// the defaults. An empty path yields the defaults.
func LoadStringTable(path string) (StringTable, error) {
	table := DefaultStringTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locale file: %w", err)
	}

	var overrides map[string]string
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse locale file: %w", err)
	}
	for k, v := range overrides {
		table[k] = v
	}
	return table, nil
}

func (t StringTable) Lookup(key string) string {
	if v, ok := t[key]; ok {
		return v
	}
	return key
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
