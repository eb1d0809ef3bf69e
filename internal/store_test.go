package internal

import (
	"context"
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *DatabaseManager {
	t.Helper()
	dm, err := OpenDatabase("sqlite3", ":memory:", createTestLogger())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { dm.Close() })
	return dm
}

func TestDatabaseManager_GetPlayerNotFound(t *testing.T) {
	dm := newTestStore(t)

	_, err := dm.GetPlayerByDiscordID(context.Background(), "nobody")
	if !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestDatabaseManager_SaveAndGet(t *testing.T) {
	dm := newTestStore(t)
	ctx := context.Background()

	in := &Player{
		DiscordID:  "u-1",
		SummonerID: "s-1",
		PUUID:      "p-1",
		GameName:   "Faker",
		TagLine:    "KR1",
		Region:     "kr",
		Tier:       "GOLD",
		Division:   "II",
	}
	if err := dm.SavePlayer(ctx, in); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	out, err := dm.GetPlayerByDiscordID(ctx, "u-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if out.PUUID != "p-1" || out.GameName != "Faker" || out.Tier != "GOLD" || out.Division != "II" {
		t.Errorf("unexpected player %+v", out)
	}
	if out.UpdatedAt.IsZero() {
		t.Error("updated_at should be set")
	}
}

func TestDatabaseManager_SaveUpserts(t *testing.T) {
	dm := newTestStore(t)
	ctx := context.Background()

	dm.SavePlayer(ctx, &Player{DiscordID: "u-1", PUUID: "p-1", Tier: "SILVER", Division: "I"})
	if err := dm.SavePlayer(ctx, &Player{DiscordID: "u-1", PUUID: "p-1", Tier: "GOLD", Division: "IV"}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	out, err := dm.GetPlayerByDiscordID(ctx, "u-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if out.Tier != "GOLD" || out.Division != "IV" {
		t.Errorf("expected the latest rank, got %s %s", out.Tier, out.Division)
	}

	var n int
	dm.DB.QueryRow("SELECT COUNT(*) FROM players").Scan(&n)
	if n != 1 {
		t.Errorf("expected one row, got %d", n)
	}
}

func TestDatabaseManager_Rebind(t *testing.T) {
	pg := &DatabaseManager{driver: "postgres"}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("unexpected postgres query %q", got)
	}

	lite := &DatabaseManager{driver: "sqlite3"}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite query should be unchanged, got %q", got)
	}
}

func TestPlayer_LookupID(t *testing.T) {
	if got := (&Player{PUUID: "p", SummonerID: "s"}).lookupID(); got != "p" {
		t.Errorf("puuid should win, got %s", got)
	}
	if got := (&Player{SummonerID: "s"}).lookupID(); got != "s" {
		t.Errorf("expected summoner id fallback, got %s", got)
	}
}
