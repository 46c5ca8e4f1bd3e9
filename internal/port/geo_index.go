package port

import (
	"context"

	"github.com/swiftkart/dispatch/internal/core/domain"
)

type GeoIndex interface {
	// Nearest returns up to limit warehouses ordered by ascending distance
	// from (lat, lon), each annotated with its distance in kilometers.
	Nearest(ctx context.Context, lat, lon float64, limit int) ([]domain.WarehouseDistance, error)

	// Warehouses lists every registered warehouse.
	Warehouses(ctx context.Context) ([]domain.Warehouse, error)
}
