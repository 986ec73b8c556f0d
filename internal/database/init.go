package database

import (
	"context"
	"fmt"

	"github.com/yourusername/arb-scout/internal/config"
)

// schema holds the opportunity tables. Upserts rely on the unique keys, so
// the tables are created up front rather than lazily.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS moneyline_arbitrage_opportunities (
		id BIGSERIAL PRIMARY KEY,
		game_id TEXT NOT NULL,
		home_team TEXT,
		away_team TEXT,
		over_book TEXT NOT NULL,
		under_book TEXT NOT NULL,
		over_odds INTEGER NOT NULL,
		under_odds INTEGER NOT NULL,
		profit_percent DOUBLE PRECISION NOT NULL,
		detected_at TIMESTAMPTZ NOT NULL,
		UNIQUE (game_id, over_book, under_book)
	)`,
	`CREATE TABLE IF NOT EXISTS prop_arbitrage_opportunities (
		id BIGSERIAL PRIMARY KEY,
		game_id TEXT NOT NULL,
		market_type TEXT NOT NULL,
		player_name TEXT NOT NULL,
		line_value DOUBLE PRECISION NOT NULL,
		home_team TEXT,
		away_team TEXT,
		over_book TEXT NOT NULL,
		under_book TEXT NOT NULL,
		over_odds INTEGER NOT NULL,
		under_odds INTEGER NOT NULL,
		profit_percent DOUBLE PRECISION NOT NULL,
		detected_at TIMESTAMPTZ NOT NULL,
		UNIQUE (game_id, market_type, player_name, line_value, over_book, under_book)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_moneyline_arbitrage_profit
		ON moneyline_arbitrage_opportunities (profit_percent DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_prop_arbitrage_profit
		ON prop_arbitrage_opportunities (profit_percent DESC)`,
}

// Initialize creates a database connection pool and ensures the opportunity
// tables exist.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates the opportunity tables and indexes if they are missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
