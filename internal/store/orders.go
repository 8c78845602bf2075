// ABOUTME: Order persistence methods for the SQLite store
// ABOUTME: Orders are append-only; no update or delete exists

package store

import (
	"context"
	"fmt"
	"time"
)

// CreateOrder inserts a new order row.
func (s *SQLiteStore) CreateOrder(ctx context.Context, order *Order) error {
	query := `
		INSERT INTO orders (id, username, pizza, address, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		order.ID,
		order.Username,
		order.Pizza,
		order.Address,
		order.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	s.logger.Info("created order", "id", order.ID, "username", order.Username)
	return nil
}

// ListOrdersForUser returns a user's orders, oldest first.
func (s *SQLiteStore) ListOrdersForUser(ctx context.Context, username string) ([]*Order, error) {
	query := `
		SELECT id, username, pizza, address, created_at
		FROM orders
		WHERE username = ?
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orders []*Order
	for rows.Next() {
		var order Order
		var createdAtStr string

		if err := rows.Scan(&order.ID, &order.Username, &order.Pizza, &order.Address, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}

		order.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}

	return orders, nil
}
