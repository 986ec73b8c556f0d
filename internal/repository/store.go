package repository

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-scout/internal/models"
)

// DefaultMinProfitPercent is the storage threshold applied when none is
// configured.
const DefaultMinProfitPercent = 1.99

// OpportunityStore filters detected opportunities by the minimum-profit
// threshold, stamps each qualifying row with a detection timestamp and
// upserts it. It returns exactly the rows it attempted to store.
type OpportunityStore struct {
	repo      OpportunityRepository
	minProfit float64
	now       func() time.Time
	logger    *logrus.Logger
}

// NewOpportunityStore creates a new opportunity store
func NewOpportunityStore(repo OpportunityRepository, minProfit float64, logger *logrus.Logger) *OpportunityStore {
	if minProfit <= 0 {
		minProfit = DefaultMinProfitPercent
	}
	return &OpportunityStore{
		repo:      repo,
		minProfit: minProfit,
		now:       time.Now,
		logger:    logger,
	}
}

// UpsertMoneylineOpportunities filters and upserts moneyline opportunities
// that meet the minimum profit threshold.
func (s *OpportunityStore) UpsertMoneylineOpportunities(ctx context.Context, opps []models.Opportunity) ([]models.OpportunityRow, error) {
	rows := s.qualify(opps)
	if len(rows) == 0 {
		return rows, nil
	}

	if err := s.repo.UpsertMoneyline(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertPropOpportunities filters and upserts prop opportunities that meet
// the minimum profit threshold.
func (s *OpportunityStore) UpsertPropOpportunities(ctx context.Context, opps []models.Opportunity) ([]models.OpportunityRow, error) {
	rows := s.qualify(opps)
	if len(rows) == 0 {
		return rows, nil
	}

	if err := s.repo.UpsertProps(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *OpportunityStore) qualify(opps []models.Opportunity) []models.OpportunityRow {
	detectedAt := s.now().UTC()

	rows := []models.OpportunityRow{}
	for _, opp := range opps {
		if opp.ProfitPercent < s.minProfit {
			continue
		}
		rows = append(rows, models.OpportunityRow{Opportunity: opp, DetectedAt: detectedAt})
	}
	return rows
}
