package repository

import (
	"context"

	"github.com/yourusername/arb-scout/internal/models"
)

// OpportunityRepository persists and queries arbitrage opportunity rows.
// Moneyline rows are keyed by (game_id, over_book, under_book); prop rows by
// (game_id, market_type, player_name, line_value, over_book, under_book).
type OpportunityRepository interface {
	UpsertMoneyline(ctx context.Context, rows []models.OpportunityRow) error
	UpsertProps(ctx context.Context, rows []models.OpportunityRow) error
	ListMoneyline(ctx context.Context, minProfit float64) ([]models.OpportunityRow, error)
	ListProps(ctx context.Context, minProfit float64) ([]models.OpportunityRow, error)
}
