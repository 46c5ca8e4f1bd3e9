package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/swiftkart/dispatch/internal/core/domain"
)

const warehouseIndex = "warehouses"

// ElasticAdapter is the geo index over warehouse locations. It answers
// k-nearest queries sorted ascending by great-circle distance, with the
// distance of each hit reported in kilometers.
type ElasticAdapter struct {
	client *elasticsearch.Client
}

func NewElasticAdapter(client *elasticsearch.Client) *ElasticAdapter {
	return &ElasticAdapter{client: client}
}

type warehouseDoc struct {
	ID       string `json:"id"`
	City     string `json:"city,omitempty"`
	Location struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"location"`
}

func (d warehouseDoc) warehouse() domain.Warehouse {
	return domain.Warehouse{
		ID:   d.ID,
		City: d.City,
		Lat:  d.Location.Lat,
		Lon:  d.Location.Lon,
	}
}

func (a *ElasticAdapter) Nearest(ctx context.Context, lat, lon float64, limit int) ([]domain.WarehouseDistance, error) {
	body := map[string]interface{}{
		"size": limit,
		"sort": []map[string]interface{}{
			{
				"_geo_distance": map[string]interface{}{
					"location": map[string]float64{"lat": lat, "lon": lon},
					"order":    "asc",
					"unit":     "km",
				},
			},
		},
	}
	bodyBytes, _ := json.Marshal(body)

	res, err := a.client.Search(
		a.client.Search.WithContext(ctx),
		a.client.Search.WithIndex(warehouseIndex),
		a.client.Search.WithBody(bytes.NewReader(bodyBytes)),
	)
	if err != nil {
		return nil, fmt.Errorf("geo search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("geo search: %s", res.String())
	}

	var esResp struct {
		Hits struct {
			Hits []struct {
				Source warehouseDoc `json:"_source"`
				Sort   []float64    `json:"sort"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("decode geo response: %w", err)
	}

	out := make([]domain.WarehouseDistance, 0, len(esResp.Hits.Hits))
	for _, h := range esResp.Hits.Hits {
		if len(h.Sort) == 0 {
			continue
		}
		out = append(out, domain.WarehouseDistance{
			Warehouse:  h.Source.warehouse(),
			DistanceKm: h.Sort[0],
		})
	}
	return out, nil
}

func (a *ElasticAdapter) Warehouses(ctx context.Context) ([]domain.Warehouse, error) {
	body := `{"size":100,"query":{"match_all":{}}}`

	res, err := a.client.Search(
		a.client.Search.WithContext(ctx),
		a.client.Search.WithIndex(warehouseIndex),
		a.client.Search.WithBody(strings.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("list warehouses: %s", res.String())
	}

	var esResp struct {
		Hits struct {
			Hits []struct {
				Source warehouseDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("decode warehouse listing: %w", err)
	}

	out := make([]domain.Warehouse, 0, len(esResp.Hits.Hits))
	for _, h := range esResp.Hits.Hits {
		out = append(out, h.Source.warehouse())
	}
	return out, nil
}

// IndexWarehouse upserts one warehouse document, refreshing the index so the
// document is immediately searchable. Used by the seeding tools.
func (a *ElasticAdapter) IndexWarehouse(ctx context.Context, wh domain.Warehouse) error {
	doc := warehouseDoc{ID: wh.ID, City: wh.City}
	doc.Location.Lat = wh.Lat
	doc.Location.Lon = wh.Lon
	docBytes, _ := json.Marshal(doc)

	res, err := a.client.Index(
		warehouseIndex,
		bytes.NewReader(docBytes),
		a.client.Index.WithContext(ctx),
		a.client.Index.WithDocumentID(wh.ID),
		a.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("index warehouse %s: %w", wh.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index warehouse %s: %s", wh.ID, res.String())
	}
	return nil
}

// RecreateIndex drops the warehouse index and recreates it with a geo_point
// mapping on location.
func (a *ElasticAdapter) RecreateIndex(ctx context.Context) error {
	del, err := a.client.Indices.Delete(
		[]string{warehouseIndex},
		a.client.Indices.Delete.WithContext(ctx),
		a.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("drop warehouse index: %w", err)
	}
	del.Body.Close()

	mapping := `{
		"mappings": {
			"properties": {
				"id":       {"type": "keyword"},
				"city":     {"type": "keyword"},
				"location": {"type": "geo_point"}
			}
		}
	}`
	res, err := a.client.Indices.Create(
		warehouseIndex,
		a.client.Indices.Create.WithContext(ctx),
		a.client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("create warehouse index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create warehouse index: %s", res.String())
	}
	return nil
}
