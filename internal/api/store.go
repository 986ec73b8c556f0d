package api

import (
	"context"

	"github.com/yourusername/arb-scout/internal/models"
	"github.com/yourusername/arb-scout/internal/service"
)

// BroadcastingStore decorates an opportunity store so every stored batch is
// pushed to websocket subscribers.
type BroadcastingStore struct {
	inner service.OpportunityStore
	hub   *Hub
}

// NewBroadcastingStore wraps an opportunity store with hub notification.
func NewBroadcastingStore(inner service.OpportunityStore, hub *Hub) *BroadcastingStore {
	return &BroadcastingStore{inner: inner, hub: hub}
}

// UpsertMoneylineOpportunities stores moneyline rows and broadcasts them.
func (s *BroadcastingStore) UpsertMoneylineOpportunities(ctx context.Context, opps []models.Opportunity) ([]models.OpportunityRow, error) {
	rows, err := s.inner.UpsertMoneylineOpportunities(ctx, opps)
	if err == nil {
		s.hub.Broadcast(rows)
	}
	return rows, err
}

// UpsertPropOpportunities stores prop rows and broadcasts them.
func (s *BroadcastingStore) UpsertPropOpportunities(ctx context.Context, opps []models.Opportunity) ([]models.OpportunityRow, error) {
	rows, err := s.inner.UpsertPropOpportunities(ctx, opps)
	if err == nil {
		s.hub.Broadcast(rows)
	}
	return rows, err
}
