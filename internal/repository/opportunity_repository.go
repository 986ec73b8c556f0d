package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/arb-scout/internal/database"
	"github.com/yourusername/arb-scout/internal/models"
)

// PostgresOpportunityRepository implements OpportunityRepository for PostgreSQL
type PostgresOpportunityRepository struct {
	db *database.DB
}

// NewPostgresOpportunityRepository creates a new opportunity repository
func NewPostgresOpportunityRepository(db *database.DB) OpportunityRepository {
	return &PostgresOpportunityRepository{db: db}
}

// UpsertMoneyline upserts moneyline rows keyed by (game_id, over_book, under_book)
func (r *PostgresOpportunityRepository) UpsertMoneyline(ctx context.Context, rows []models.OpportunityRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `
		INSERT INTO moneyline_arbitrage_opportunities
			(game_id, home_team, away_team, over_book, under_book, over_odds, under_odds, profit_percent, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (game_id, over_book, under_book) DO UPDATE SET
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			over_odds = EXCLUDED.over_odds,
			under_odds = EXCLUDED.under_odds,
			profit_percent = EXCLUDED.profit_percent,
			detected_at = EXCLUDED.detected_at
	`

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(query,
			row.GameID, row.HomeTeam, row.AwayTeam, row.OverBook, row.UnderBook,
			row.OverOdds, row.UnderOdds, row.ProfitPercent, row.DetectedAt,
		)
	}

	if err := r.db.GetPool().SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert moneyline opportunities: %w", err)
	}
	return nil
}

// UpsertProps upserts prop rows keyed by
// (game_id, market_type, player_name, line_value, over_book, under_book)
func (r *PostgresOpportunityRepository) UpsertProps(ctx context.Context, rows []models.OpportunityRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `
		INSERT INTO prop_arbitrage_opportunities
			(game_id, market_type, player_name, line_value, home_team, away_team,
			 over_book, under_book, over_odds, under_odds, profit_percent, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (game_id, market_type, player_name, line_value, over_book, under_book) DO UPDATE SET
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			over_odds = EXCLUDED.over_odds,
			under_odds = EXCLUDED.under_odds,
			profit_percent = EXCLUDED.profit_percent,
			detected_at = EXCLUDED.detected_at
	`

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(query,
			row.GameID, row.MarketType, row.PlayerName, row.LineValue,
			row.HomeTeam, row.AwayTeam, row.OverBook, row.UnderBook,
			row.OverOdds, row.UnderOdds, row.ProfitPercent, row.DetectedAt,
		)
	}

	if err := r.db.GetPool().SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert prop opportunities: %w", err)
	}
	return nil
}

// ListMoneyline retrieves moneyline rows at or above the minimum profit,
// sorted by descending profit
func (r *PostgresOpportunityRepository) ListMoneyline(ctx context.Context, minProfit float64) ([]models.OpportunityRow, error) {
	query := `
		SELECT game_id, home_team, away_team, over_book, under_book, over_odds, under_odds, profit_percent, detected_at
		FROM moneyline_arbitrage_opportunities
		WHERE profit_percent >= $1
		ORDER BY profit_percent DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, minProfit)
	if err != nil {
		return nil, fmt.Errorf("failed to query moneyline opportunities: %w", err)
	}
	defer rows.Close()

	results := []models.OpportunityRow{}
	for rows.Next() {
		row := models.OpportunityRow{}
		row.MarketType = models.MarketMoneyline
		err := rows.Scan(
			&row.GameID, &row.HomeTeam, &row.AwayTeam, &row.OverBook, &row.UnderBook,
			&row.OverOdds, &row.UnderOdds, &row.ProfitPercent, &row.DetectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan moneyline opportunity: %w", err)
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

// ListProps retrieves prop rows at or above the minimum profit, sorted by
// descending profit
func (r *PostgresOpportunityRepository) ListProps(ctx context.Context, minProfit float64) ([]models.OpportunityRow, error) {
	query := `
		SELECT game_id, market_type, player_name, line_value, home_team, away_team,
		       over_book, under_book, over_odds, under_odds, profit_percent, detected_at
		FROM prop_arbitrage_opportunities
		WHERE profit_percent >= $1
		ORDER BY profit_percent DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, minProfit)
	if err != nil {
		return nil, fmt.Errorf("failed to query prop opportunities: %w", err)
	}
	defer rows.Close()

	results := []models.OpportunityRow{}
	for rows.Next() {
		row := models.OpportunityRow{}
		err := rows.Scan(
			&row.GameID, &row.MarketType, &row.PlayerName, &row.LineValue,
			&row.HomeTeam, &row.AwayTeam, &row.OverBook, &row.UnderBook,
			&row.OverOdds, &row.UnderOdds, &row.ProfitPercent, &row.DetectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prop opportunity: %w", err)
		}
		results = append(results, row)
	}

	return results, rows.Err()
}
