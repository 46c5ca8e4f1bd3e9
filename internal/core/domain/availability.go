package domain

type UnavailableReason string

const (
	// ReasonOutOfRange means no warehouse at all was within the service radius.
	ReasonOutOfRange UnavailableReason = "out_of_range"
	// ReasonNoStockInRange means at least one warehouse was in range but none
	// of them had stock.
	ReasonNoStockInRange UnavailableReason = "no_stock_in_range"
	// ReasonSearchFailed means the geo index query itself failed.
	ReasonSearchFailed UnavailableReason = "search_failed"
)

// Availability is the resolver's answer for one (item, location) query.
// When Available is false, Reason says why.
type Availability struct {
	Available   bool
	WarehouseID string
	DistanceKm  float64
	Quantity    int
	Reason      UnavailableReason
}
