package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/swiftkart/dispatch/internal/adapter/storage"
	"github.com/swiftkart/dispatch/internal/config"
	"github.com/swiftkart/dispatch/internal/core/domain"
)

var warehouses = []domain.Warehouse{
	// Amer, roughly 8 km from LNMIIT.
	{ID: "wh_amer", City: "Amer", Lat: 26.9900, Lon: 75.8600},
	// Raja Park, city center, roughly 15 km out.
	{ID: "wh_rajapark", City: "Raja Park", Lat: 26.9000, Lon: 75.8300},
	// Ajmer, far outside the service radius.
	{ID: "wh_ajmer", City: "Ajmer", Lat: 26.4499, Lon: 74.6399},
}

var stock = []domain.StockLevel{
	{WarehouseID: "wh_amer", ItemID: "apple", Quantity: 100},
	{WarehouseID: "wh_amer", ItemID: "milk", Quantity: 0},
	{WarehouseID: "wh_amer", ItemID: "bread", Quantity: 50},
	{WarehouseID: "wh_amer", ItemID: "coke", Quantity: 50},
	{WarehouseID: "wh_amer", ItemID: "chips", Quantity: 20},

	{WarehouseID: "wh_rajapark", ItemID: "apple", Quantity: 50},
	{WarehouseID: "wh_rajapark", ItemID: "milk", Quantity: 50},
	{WarehouseID: "wh_rajapark", ItemID: "bread", Quantity: 20},
	{WarehouseID: "wh_rajapark", ItemID: "coke", Quantity: 10},
	{WarehouseID: "wh_rajapark", ItemID: "chips", Quantity: 0},
}

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "seed").Logger()

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open mysql")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping mysql")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	esClient, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{cfg.ElasticURL}})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build elasticsearch client")
	}

	ledger := storage.NewMySQLAdapter(db)
	cache := storage.NewRedisAdapter(rdb)
	geo := storage.NewElasticAdapter(esClient)

	if err := ledger.CreateSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("schema creation failed")
	}
	if _, err := db.ExecContext(ctx, `TRUNCATE TABLE inventory`); err != nil {
		logger.Fatal().Err(err).Msg("truncate inventory failed")
	}
	if _, err := db.ExecContext(ctx, `TRUNCATE TABLE orders`); err != nil {
		logger.Fatal().Err(err).Msg("truncate orders failed")
	}
	if err := rdb.FlushAll(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("redis flush failed")
	}
	logger.Info().Msg("old data cleared")

	// Each quantity is written to the ledger and mirrored into the cache so
	// both copies start out identical.
	for _, lvl := range stock {
		if err := ledger.SetStock(ctx, lvl); err != nil {
			logger.Fatal().Err(err).Str("warehouse_id", lvl.WarehouseID).Str("item_id", lvl.ItemID).Msg("ledger seed failed")
		}
		if err := cache.SetStock(ctx, lvl.WarehouseID, lvl.ItemID, lvl.Quantity); err != nil {
			logger.Fatal().Err(err).Str("warehouse_id", lvl.WarehouseID).Str("item_id", lvl.ItemID).Msg("cache seed failed")
		}
	}
	logger.Info().Int("levels", len(stock)).Msg("inventory seeded")

	if err := geo.RecreateIndex(ctx); err != nil {
		logger.Fatal().Err(err).Msg("index recreation failed")
	}
	for _, wh := range warehouses {
		if err := geo.IndexWarehouse(ctx, wh); err != nil {
			logger.Fatal().Err(err).Str("warehouse_id", wh.ID).Msg("warehouse indexing failed")
		}
	}
	logger.Info().Int("warehouses", len(warehouses)).Msg("geo index seeded")
}
