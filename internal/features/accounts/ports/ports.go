package ports

import (
	"context"

	"cakeshop-backend/internal/features/accounts/domain"
)

// AdminDirectory resolves administrative notification targets.
// Tokens are fetched fresh per event; the fan-out never caches them.
type AdminDirectory interface {
	// ListWithPushTokens returns all admins holding a non-empty push token.
	ListWithPushTokens(ctx context.Context) ([]domain.Admin, error)
}

// CustomerDirectory resolves customer notification targets.
type CustomerDirectory interface {
	// GetByID returns the customer, or nil, nil when absent.
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}
