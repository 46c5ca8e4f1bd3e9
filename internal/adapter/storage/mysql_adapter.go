package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/swiftkart/dispatch/internal/core/domain"
)

// MySQLAdapter is the transactional ledger: the authoritative copy of stock
// and the record of every committed order.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// FulfillOrder applies the whole intent in one transaction. Stock rows are
// locked FOR UPDATE in the order the intent lists them and held until commit
// or rollback; the re-read under lock is what prevents two concurrent orders
// from both spending the same unit.
func (m *MySQLAdapter) FulfillOrder(ctx context.Context, intent domain.OrderIntent) ([]domain.StockLevel, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// An existing order row is the proof of a prior successful apply.
	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT order_id FROM orders WHERE order_id = ?`, intent.OrderID,
	).Scan(&existing)
	if err == nil {
		return nil, domain.ErrAlreadyApplied
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}

	levels := make([]domain.StockLevel, 0, len(intent.Items))
	for _, item := range intent.Items {
		var stock int
		err = tx.QueryRowContext(ctx, `
			SELECT stock FROM inventory
			WHERE warehouse_id = ? AND item_id = ? FOR UPDATE`,
			item.WarehouseID, item.ItemID,
		).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no stock row for %s at %s",
				domain.ErrInsufficientStock, item.ItemID, item.WarehouseID)
		}
		if err != nil {
			return nil, fmt.Errorf("lock stock row: %w", err)
		}
		if stock < item.Quantity {
			return nil, fmt.Errorf("%w: %s at %s has %d, need %d",
				domain.ErrInsufficientStock, item.ItemID, item.WarehouseID, stock, item.Quantity)
		}

		newStock := stock - item.Quantity
		if _, err := tx.ExecContext(ctx, `
			UPDATE inventory SET stock = ?
			WHERE warehouse_id = ? AND item_id = ?`,
			newStock, item.WarehouseID, item.ItemID,
		); err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		levels = append(levels, domain.StockLevel{
			WarehouseID: item.WarehouseID,
			ItemID:      item.ItemID,
			Quantity:    newStock,
		})
	}

	itemsJSON, err := json.Marshal(intent.Items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders (order_id, customer_id, warehouse_id, status, items, created_at)
		VALUES (?, ?, ?, ?, ?, NOW())`,
		intent.OrderID, intent.CustomerID, intent.Items[0].WarehouseID,
		string(domain.OrderStatusConfirmed), itemsJSON,
	); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return levels, nil
}

func (m *MySQLAdapter) OrdersByCustomer(ctx context.Context, customerID string) ([]domain.OrderRecord, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT order_id, customer_id, warehouse_id, status, items, created_at
		FROM orders WHERE customer_id = ?
		ORDER BY created_at DESC, order_id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var records []domain.OrderRecord
	for rows.Next() {
		var rec domain.OrderRecord
		var itemsJSON []byte
		if err := rows.Scan(&rec.OrderID, &rec.CustomerID, &rec.WarehouseID,
			&rec.Status, &itemsJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if err := json.Unmarshal(itemsJSON, &rec.Items); err != nil {
			return nil, fmt.Errorf("decode order items: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SetStock upserts one authoritative stock row. Used by the seeding tools.
func (m *MySQLAdapter) SetStock(ctx context.Context, level domain.StockLevel) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory (warehouse_id, item_id, stock) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE stock = VALUES(stock)`,
		level.WarehouseID, level.ItemID, level.Quantity,
	)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// CreateSchema creates the ledger tables when they do not exist.
func (m *MySQLAdapter) CreateSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS inventory (
			warehouse_id VARCHAR(50) NOT NULL,
			item_id      VARCHAR(50) NOT NULL,
			stock        INT NOT NULL,
			PRIMARY KEY (warehouse_id, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_id     VARCHAR(36) NOT NULL,
			customer_id  VARCHAR(50) NOT NULL,
			warehouse_id VARCHAR(50) NOT NULL,
			status       VARCHAR(20) NOT NULL,
			items        JSON NOT NULL,
			created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (order_id),
			KEY idx_orders_customer (customer_id, created_at)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
