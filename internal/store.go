package internal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const storeQueryTimeout = 5 * time.Second

type Player struct {
	DiscordID  string
	SummonerID string
	PUUID      string
	GameName   string
	TagLine    string
	Region     string
	Tier       string
	Division   string
	UpdatedAt  time.Time
}

// lookupID is the value the summoner-by-puuid endpoint expects. Records
// written before puuids were stored kept the puuid in SummonerID.
func (p *Player) lookupID() string {
	if p.PUUID != "" {
		return p.PUUID
	}
	return p.SummonerID
}

type DatabaseManager struct {
	DB     *sql.DB
	driver string
	logger *Logger
}

func NewDatabaseManager(cfg *Config, logger *Logger) (*DatabaseManager, error) {
	dsn := cfg.SQLitePath
	if cfg.StorageDriver == "postgres" {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.PostgresHost,
			cfg.PostgresPort,
			cfg.PostgresUser,
			cfg.PostgresPassword,
			cfg.PostgresDB,
			cfg.PostgresSSLMode,
		)
	}
	return OpenDatabase(cfg.StorageDriver, dsn, logger)
}

// OpenDatabase connects with driver ("postgres" or "sqlite3") and applies the
// embedded migrations.
func OpenDatabase(driver, dsn string, logger *Logger) (*DatabaseManager, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver == "sqlite3" {
		// one writer keeps sqlite from returning SQLITE_BUSY under concurrent interactions
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}

	if err := runMigrations(db, driver); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("database_connected").
		Component("store").
		Operation("open").
		Meta("driver", driver).
		Log()

	return &DatabaseManager{DB: db, driver: driver, logger: logger}, nil
}

func runMigrations(db *sql.DB, driver string) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (dm *DatabaseManager) GetPlayerByDiscordID(ctx context.Context, discordID string) (*Player, error) {
	ctx, cancel := context.WithTimeout(ctx, storeQueryTimeout)
	defer cancel()

	query := dm.rebind(`
		SELECT discord_id, summoner_id, puuid, game_name, tag_line, region, tier, division, updated_at
		FROM players
		WHERE discord_id = ?
	`)

	var p Player
	err := dm.DB.QueryRowContext(ctx, query, discordID).Scan(
		&p.DiscordID,
		&p.SummonerID,
		&p.PUUID,
		&p.GameName,
		&p.TagLine,
		&p.Region,
		&p.Tier,
		&p.Division,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player %s: %w", discordID, err)
	}
	return &p, nil
}

func (dm *DatabaseManager) SavePlayer(ctx context.Context, p *Player) error {
	ctx, cancel := context.WithTimeout(ctx, storeQueryTimeout)
	defer cancel()

	query := dm.rebind(`
		INSERT INTO players (discord_id, summoner_id, puuid, game_name, tag_line, region, tier, division, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (discord_id) DO UPDATE SET
			summoner_id = excluded.summoner_id,
			puuid = excluded.puuid,
			game_name = excluded.game_name,
			tag_line = excluded.tag_line,
			region = excluded.region,
			tier = excluded.tier,
			division = excluded.division,
			updated_at = CURRENT_TIMESTAMP
	`)

	_, err := dm.DB.ExecContext(ctx, query,
		p.DiscordID, p.SummonerID, p.PUUID, p.GameName, p.TagLine, p.Region, p.Tier, p.Division)
	if err != nil {
		dm.logger.Error("player_save_failed").
			Component("store").
			Operation("save_player").
			Err(err).
			Meta("discord_id", p.DiscordID).
			Log()
		return fmt.Errorf("save player %s: %w", p.DiscordID, err)
	}
	return nil
}

// rebind turns '?' placeholders into '$n' for postgres.
func (dm *DatabaseManager) rebind(query string) string {
	if dm.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (dm *DatabaseManager) Close() error {
	if dm.DB == nil {
		return nil
	}
	return dm.DB.Close()
}
