package repository

import (
	"fmt"

	"github.com/yourusername/arb-scout/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Opportunity OpportunityRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Opportunity: NewPostgresOpportunityRepository(db),
	}, nil
}
