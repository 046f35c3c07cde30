package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cakeshop-backend/internal/features/orders/domain"
	"cakeshop-backend/internal/features/orders/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

const orderColumns = `id, order_id, user_id, items, tax, shipping_charge, total_amount,
	status, assigned_admin_id, delivery_agent_id,
	payment_method, payment_status,
	COALESCE(gateway_order_ref, ''), COALESCE(gateway_payment_ref, ''), COALESCE(gateway_signature, ''),
	shipping_address, COALESCE(order_instructions, ''), COALESCE(delivery_instructions, ''),
	estimated_delivery, actual_delivery, COALESCE(tracking_number, ''),
	created_at, updated_at`

// PostgresOrderRepository implements ports.OrderRepository. Line items and
// the shipping address are stored as jsonb; everything queried by the list
// filters has its own column and index.
type PostgresOrderRepository struct {
	db *sql.DB
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository.
func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// Insert persists a new order. A unique violation on the order_id index is
// mapped to ports.ErrDuplicateOrderID so the service can regenerate.
func (r *PostgresOrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}
	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	query := `INSERT INTO orders (
		id, order_id, user_id, items, tax, shipping_charge, total_amount,
		status, assigned_admin_id, delivery_agent_id,
		payment_method, payment_status,
		gateway_order_ref, gateway_payment_ref, gateway_signature,
		shipping_address, order_instructions, delivery_instructions,
		estimated_delivery, actual_delivery, tracking_number,
		created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`

	_, err = r.db.ExecContext(ctx, query,
		order.ID, order.OrderID, order.UserID, items,
		order.Tax, order.ShippingCharge, order.TotalAmount,
		order.Status, order.AssignedAdminID, order.DeliveryAgentID,
		order.PaymentMethod, order.PaymentStatus,
		nullIfEmpty(order.GatewayOrderRef), nullIfEmpty(order.GatewayPaymentRef), nullIfEmpty(order.GatewaySignature),
		address, nullIfEmpty(order.OrderInstructions), nullIfEmpty(order.DeliveryInstructions),
		order.EstimatedDelivery, order.ActualDelivery, nullIfEmpty(order.TrackingNumber),
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ports.ErrDuplicateOrderID
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// GetByOrderID loads an order by its human-readable identifier.
func (r *PostgresOrderRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE order_id = $1`, orderColumns)

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	return order, nil
}

// OrderIDExists reports whether the identifier is already taken.
func (r *PostgresOrderRepository) OrderIDExists(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM orders WHERE order_id = $1)`, orderID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check order id %s: %w", orderID, err)
	}
	return exists, nil
}

// Update persists the mutable state of an existing order.
func (r *PostgresOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `UPDATE orders SET
		status = $2, assigned_admin_id = $3, delivery_agent_id = $4,
		payment_status = $5, gateway_payment_ref = $6, gateway_signature = $7,
		estimated_delivery = $8, actual_delivery = $9, tracking_number = $10,
		updated_at = $11
	WHERE order_id = $1`

	res, err := r.db.ExecContext(ctx, query,
		order.OrderID,
		order.Status, order.AssignedAdminID, order.DeliveryAgentID,
		order.PaymentStatus, nullIfEmpty(order.GatewayPaymentRef), nullIfEmpty(order.GatewaySignature),
		order.EstimatedDelivery, order.ActualDelivery, nullIfEmpty(order.TrackingNumber),
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", order.OrderID, err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("order %s not found for update", order.OrderID)
	}
	return nil
}

// List returns up to filter.Limit+1 matching orders, newest first. The extra
// row lets the service detect a next page.
func (r *PostgresOrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]domain.Order, error) {
	var (
		conditions []string
		args       []any
	)

	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.UserID != "" {
		addCondition("user_id = $%d", filter.UserID)
	}
	if filter.Status != "" {
		addCondition("status = $%d", filter.Status)
	}
	if filter.AssignedAdminID != "" {
		addCondition("assigned_admin_id = $%d", filter.AssignedAdminID)
	}
	if filter.DeliveryAgentID != "" {
		addCondition("delivery_agent_id = $%d", filter.DeliveryAgentID)
	}
	if filter.Cursor != nil {
		addCondition("created_at < $%d", *filter.Cursor)
	}

	query := fmt.Sprintf(`SELECT %s FROM orders`, orderColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, filter.Limit+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order             domain.Order
		items             []byte
		address           []byte
		assignedAdminID   sql.NullString
		deliveryAgentID   sql.NullString
		estimatedDelivery sql.NullTime
		actualDelivery    sql.NullTime
	)

	err := row.Scan(
		&order.ID, &order.OrderID, &order.UserID, &items,
		&order.Tax, &order.ShippingCharge, &order.TotalAmount,
		&order.Status, &assignedAdminID, &deliveryAgentID,
		&order.PaymentMethod, &order.PaymentStatus,
		&order.GatewayOrderRef, &order.GatewayPaymentRef, &order.GatewaySignature,
		&address, &order.OrderInstructions, &order.DeliveryInstructions,
		&estimatedDelivery, &actualDelivery, &order.TrackingNumber,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}
	if err := json.Unmarshal(address, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipping address: %w", err)
	}

	if assignedAdminID.Valid {
		order.AssignedAdminID = &assignedAdminID.String
	}
	if deliveryAgentID.Valid {
		order.DeliveryAgentID = &deliveryAgentID.String
	}
	if estimatedDelivery.Valid {
		t := estimatedDelivery.Time
		order.EstimatedDelivery = &t
	}
	if actualDelivery.Valid {
		t := actualDelivery.Time
		order.ActualDelivery = &t
	}

	return &order, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
