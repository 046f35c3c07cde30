package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cakeshop-backend/internal/features/accounts/domain"
)

// PostgresDirectory implements the admin and customer directory ports over
// the shared Postgres pool.
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgresDirectory creates a new PostgresDirectory.
func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// ListWithPushTokens returns every admin with a registered push token.
func (d *PostgresDirectory) ListWithPushTokens(ctx context.Context) ([]domain.Admin, error) {
	query := `SELECT id, name, push_token FROM admins
              WHERE push_token IS NOT NULL AND push_token <> ''`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var admins []domain.Admin
	for rows.Next() {
		var admin domain.Admin
		if err := rows.Scan(&admin.ID, &admin.Name, &admin.PushToken); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, admin)
	}
	return admins, rows.Err()
}

// GetByID returns the customer, or nil, nil when absent.
func (d *PostgresDirectory) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT id, name, COALESCE(push_token, '') FROM customers WHERE id = $1`

	var customer domain.Customer
	err := d.db.QueryRowContext(ctx, query, id).Scan(&customer.ID, &customer.Name, &customer.PushToken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer %s: %w", id, err)
	}
	return &customer, nil
}
