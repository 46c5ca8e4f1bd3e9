package port

import (
	"context"

	"github.com/swiftkart/dispatch/internal/core/domain"
)

// InventoryCache is the fast, advisory copy of stock quantities. It is read
// on the availability path and refreshed after ledger commits; it carries no
// transactional guarantee and must never be treated as the source of truth.
type InventoryCache interface {
	// GetStock returns the cached quantity for (warehouseID, itemID). The
	// second return is false when no entry exists for the pair.
	GetStock(ctx context.Context, warehouseID, itemID string) (int, bool, error)

	// SetStock overwrites the cached quantity for (warehouseID, itemID).
	SetStock(ctx context.Context, warehouseID, itemID string, quantity int) error

	// WarehouseStock returns every cached quantity for one warehouse.
	WarehouseStock(ctx context.Context, warehouseID string) ([]domain.StockLevel, error)
}
