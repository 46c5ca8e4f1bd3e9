package domain

// Warehouse is a pickup location registered in the geo index. Warehouses are
// created by the seeding tools and immutable afterwards.
type Warehouse struct {
	ID   string
	City string
	Lat  float64
	Lon  float64
}

// WarehouseDistance is one geo index hit: a warehouse annotated with its
// great-circle distance from the query point.
type WarehouseDistance struct {
	Warehouse
	DistanceKm float64
}
