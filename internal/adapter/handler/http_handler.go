package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/swiftkart/dispatch/internal/core/domain"
	"github.com/swiftkart/dispatch/internal/core/service"
	"github.com/swiftkart/dispatch/internal/port"
)

type HTTPHandler struct {
	availability *service.AvailabilityService
	publisher    port.OrderPublisher
	ledger       port.Ledger
	cache        port.InventoryCache
	geo          port.GeoIndex
	log          zerolog.Logger
}

func NewHTTPHandler(
	availability *service.AvailabilityService,
	publisher port.OrderPublisher,
	ledger port.Ledger,
	cache port.InventoryCache,
	geo port.GeoIndex,
	log zerolog.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		availability: availability,
		publisher:    publisher,
		ledger:       ledger,
		cache:        cache,
		geo:          geo,
		log:          log,
	}
}

func (h *HTTPHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", h.HealthCheck)
	r.Get("/availability", h.Availability)
	r.Post("/order", h.PlaceOrder)
	r.Get("/orders/{customerID}", h.OrderHistory)
	r.Get("/warehouses", h.Warehouses)
	r.Get("/inventory/{warehouseID}", h.WarehouseInventory)
	r.Put("/inventory/{warehouseID}/{productID}", h.UpdateStock)
	return r
}

type availabilityResponse struct {
	Available   bool    `json:"available"`
	WarehouseID string  `json:"warehouse_id,omitempty"`
	DistanceKm  float64 `json:"distance_km,omitempty"`
	Quantity    int     `json:"quantity,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}

func (h *HTTPHandler) Availability(w http.ResponseWriter, r *http.Request) {
	itemID := r.URL.Query().Get("item_id")
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if itemID == "" || latErr != nil || lonErr != nil {
		http.Error(w, "item_id, lat and lon are required", http.StatusBadRequest)
		return
	}

	res, err := h.availability.Resolve(r.Context(), itemID, lat, lon)
	if err != nil {
		h.log.Error().Err(err).Str("item_id", itemID).Msg("availability query failed")
		writeJSON(w, http.StatusServiceUnavailable, availabilityResponse{
			Reason: "service_unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse{
		Available:   res.Available,
		WarehouseID: res.WarehouseID,
		DistanceKm:  res.DistanceKm,
		Quantity:    res.Quantity,
		Reason:      string(res.Reason),
	})
}

type orderRequest struct {
	CustomerID string             `json:"customer_id"`
	Items      []domain.OrderItem `json:"items"`
}

type orderResponse struct {
	Status  string `json:"status"`
	OrderID string `json:"order_id,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, orderResponse{Status: "rejected", Message: "invalid request body"})
		return
	}
	if msg := validateOrder(req); msg != "" {
		writeJSON(w, http.StatusBadRequest, orderResponse{Status: "rejected", Message: msg})
		return
	}

	// The id is assigned here, before the intent ever leaves the process, so
	// every later delivery of this order carries the same idempotency key.
	intent := domain.OrderIntent{
		OrderID:    uuid.NewString(),
		CustomerID: req.CustomerID,
		Items:      req.Items,
	}
	if err := h.publisher.Publish(r.Context(), intent); err != nil {
		h.log.Error().Err(err).Str("order_id", intent.OrderID).Msg("enqueue failed")
		writeJSON(w, http.StatusServiceUnavailable, orderResponse{Status: "rejected", Message: "order queue unavailable"})
		return
	}

	h.log.Info().Str("order_id", intent.OrderID).Int("items", len(intent.Items)).Msg("order queued")
	writeJSON(w, http.StatusAccepted, orderResponse{Status: "queued", OrderID: intent.OrderID})
}

func validateOrder(req orderRequest) string {
	if req.CustomerID == "" {
		return "customer_id is required"
	}
	if len(req.Items) == 0 {
		return "order has no items"
	}
	for _, item := range req.Items {
		if item.ItemID == "" || item.WarehouseID == "" {
			return "every item needs item_id and warehouse_id"
		}
		if item.Quantity <= 0 {
			return "quantity must be positive"
		}
		if item.WarehouseID != req.Items[0].WarehouseID {
			return "all items of an order must ship from one warehouse"
		}
	}
	return ""
}

func (h *HTTPHandler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	records, err := h.ledger.OrdersByCustomer(r.Context(), customerID)
	if err != nil {
		h.log.Error().Err(err).Str("customer_id", customerID).Msg("order history query failed")
		http.Error(w, "order lookup failed", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []domain.OrderRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *HTTPHandler) Warehouses(w http.ResponseWriter, r *http.Request) {
	warehouses, err := h.geo.Warehouses(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("warehouse listing failed")
		http.Error(w, "warehouse lookup failed", http.StatusInternalServerError)
		return
	}

	type warehouseEntry struct {
		ID   string  `json:"id"`
		City string  `json:"city,omitempty"`
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
	}
	out := make([]warehouseEntry, 0, len(warehouses))
	for _, wh := range warehouses {
		out = append(out, warehouseEntry{ID: wh.ID, City: wh.City, Lat: wh.Lat, Lon: wh.Lon})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"warehouses": out,
		"count":      len(out),
	})
}

func (h *HTTPHandler) WarehouseInventory(w http.ResponseWriter, r *http.Request) {
	warehouseID := chi.URLParam(r, "warehouseID")

	levels, err := h.cache.WarehouseStock(r.Context(), warehouseID)
	if err != nil {
		h.log.Error().Err(err).Str("warehouse_id", warehouseID).Msg("inventory scan failed")
		http.Error(w, "inventory unavailable", http.StatusServiceUnavailable)
		return
	}

	type inventoryEntry struct {
		ProductID string `json:"product_id"`
		Name      string `json:"name"`
		Category  string `json:"category"`
		Stock     int    `json:"stock"`
		Price     int    `json:"price"`
	}
	entries := make([]inventoryEntry, 0, len(levels))
	for _, lvl := range levels {
		p := domain.CatalogProduct(lvl.ItemID)
		entries = append(entries, inventoryEntry{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Stock:     lvl.Quantity,
			Price:     p.Price,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"warehouse_id": warehouseID,
		"inventory":    entries,
		"count":        len(entries),
	})
}

type stockUpdateRequest struct {
	Stock int `json:"stock"`
}

func (h *HTTPHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	warehouseID := chi.URLParam(r, "warehouseID")
	productID := chi.URLParam(r, "productID")

	var req stockUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Stock < 0 {
		http.Error(w, "stock must be non-negative", http.StatusBadRequest)
		return
	}

	oldStock, _, err := h.cache.GetStock(r.Context(), warehouseID, productID)
	if err != nil {
		http.Error(w, "inventory unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := h.cache.SetStock(r.Context(), warehouseID, productID, req.Stock); err != nil {
		h.log.Error().Err(err).Str("warehouse_id", warehouseID).Str("product_id", productID).Msg("stock update failed")
		http.Error(w, "inventory unavailable", http.StatusServiceUnavailable)
		return
	}

	h.log.Info().
		Str("warehouse_id", warehouseID).
		Str("product_id", productID).
		Int("old_stock", oldStock).
		Int("new_stock", req.Stock).
		Msg("stock updated")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"warehouse_id": warehouseID,
		"product_id":   productID,
		"old_stock":    oldStock,
		"new_stock":    req.Stock,
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
