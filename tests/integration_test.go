package tests

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/swiftkart/dispatch/internal/adapter/storage"
	"github.com/swiftkart/dispatch/internal/core/domain"
	"github.com/swiftkart/dispatch/internal/core/service"
	"github.com/swiftkart/dispatch/internal/port"
)

type testEnv struct {
	redis  *redis.Client
	mysql  *sql.DB
	cache  *storage.RedisAdapter
	ledger *storage.MySQLAdapter
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/dispatch?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	t.Cleanup(func() {
		rdb.Close()
		db.Close()
	})

	env := &testEnv{
		redis:  rdb,
		mysql:  db,
		cache:  storage.NewRedisAdapter(rdb),
		ledger: storage.NewMySQLAdapter(db),
	}
	if err := env.ledger.CreateSchema(context.Background()); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return env
}

func (e *testEnv) seed(t *testing.T, warehouseID, itemID string, qty int) {
	t.Helper()
	ctx := context.Background()
	e.mysql.ExecContext(ctx, `DELETE FROM orders WHERE warehouse_id = ?`, warehouseID)
	if err := e.ledger.SetStock(ctx, domain.StockLevel{WarehouseID: warehouseID, ItemID: itemID, Quantity: qty}); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
	if err := e.cache.SetStock(ctx, warehouseID, itemID, qty); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
}

// chanQueue is an in-process stand-in for the Kafka topic: intents go in via
// Publish, the worker takes them out via Receive. Requeues are recorded, not
// redelivered, so tests can assert on them without the worker spinning.
type chanQueue struct {
	mu       sync.Mutex
	msgs     chan *port.Message
	acked    int
	requeued int
}

func newChanQueue(size int) *chanQueue {
	return &chanQueue{msgs: make(chan *port.Message, size)}
}

func (q *chanQueue) Publish(ctx context.Context, intent domain.OrderIntent) error {
	body, err := json.Marshal(intent)
	if err != nil {
		return err
	}
	q.msgs <- &port.Message{Body: body}
	return nil
}

func (q *chanQueue) Receive(ctx context.Context) (*port.Message, error) {
	select {
	case msg := <-q.msgs:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *chanQueue) Ack(ctx context.Context, msg *port.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked++
	return nil
}

func (q *chanQueue) Requeue(ctx context.Context, msg *port.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.requeued++
	return nil
}

func (q *chanQueue) Close() error { return nil }

func (q *chanQueue) settled() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.acked + q.requeued
}

func runWorkerUntilSettled(t *testing.T, env *testEnv, queue *chanQueue, expect int) {
	t.Helper()

	fulfillment := service.NewFulfillmentService(env.ledger, env.cache, zerolog.Nop())
	worker := service.NewWorker(queue, fulfillment, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	deadline := time.After(30 * time.Second)
	for queue.settled() < expect {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("worker settled %d of %d messages", queue.settled(), expect)
		case <-time.After(20 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestIntegration_FullOrderPipeline(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	initialStock := 10
	totalOrders := 25
	env.seed(t, "wh_pipe", "apple", initialStock)

	queue := newChanQueue(totalOrders)
	for i := 0; i < totalOrders; i++ {
		err := queue.Publish(ctx, domain.OrderIntent{
			OrderID:    uuid.NewString(),
			CustomerID: "cust-pipe",
			Items:      []domain.OrderItem{{ItemID: "apple", WarehouseID: "wh_pipe", Quantity: 1}},
		})
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	runWorkerUntilSettled(t, env, queue, totalOrders)

	// Exactly min(n, q) orders commit; the rest are requeued for later.
	records, err := env.ledger.OrdersByCustomer(ctx, "cust-pipe")
	if err != nil {
		t.Fatalf("order lookup: %v", err)
	}
	if len(records) != initialStock {
		t.Errorf("expected %d committed orders, got %d", initialStock, len(records))
	}
	if queue.requeued != totalOrders-initialStock {
		t.Errorf("expected %d requeues, got %d", totalOrders-initialStock, queue.requeued)
	}

	var stock int
	if err := env.mysql.QueryRowContext(ctx,
		`SELECT stock FROM inventory WHERE warehouse_id = 'wh_pipe' AND item_id = 'apple'`,
	).Scan(&stock); err != nil {
		t.Fatalf("read ledger stock: %v", err)
	}
	if stock != 0 {
		t.Errorf("expected ledger stock 0, got %d", stock)
	}

	// Write-after-commit propagation caught the cache up.
	qty, ok, err := env.cache.GetStock(ctx, "wh_pipe", "apple")
	if err != nil || !ok {
		t.Fatalf("cache read failed: qty=%d ok=%v err=%v", qty, ok, err)
	}
	if qty != 0 {
		t.Errorf("expected cached stock 0, got %d", qty)
	}
}

func TestIntegration_RedeliveryIsIdempotent(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.seed(t, "wh_redeliver", "milk", 5)

	intent := domain.OrderIntent{
		OrderID:    uuid.NewString(),
		CustomerID: "cust-redeliver",
		Items:      []domain.OrderItem{{ItemID: "milk", WarehouseID: "wh_redeliver", Quantity: 2}},
	}

	// The queue redelivers the byte-identical message three times.
	queue := newChanQueue(3)
	for i := 0; i < 3; i++ {
		if err := queue.Publish(ctx, intent); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	runWorkerUntilSettled(t, env, queue, 3)

	if queue.acked != 3 {
		t.Errorf("every delivery must be acked, got %d of 3", queue.acked)
	}
	records, err := env.ledger.OrdersByCustomer(ctx, "cust-redeliver")
	if err != nil {
		t.Fatalf("order lookup: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected exactly one order record, got %d", len(records))
	}

	var stock int
	if err := env.mysql.QueryRowContext(ctx,
		`SELECT stock FROM inventory WHERE warehouse_id = 'wh_redeliver' AND item_id = 'milk'`,
	).Scan(&stock); err != nil {
		t.Fatalf("read ledger stock: %v", err)
	}
	if stock != 3 {
		t.Errorf("expected exactly one decrement (stock 3), got %d", stock)
	}
}

// stubGeo lets the resolver run against the real cache without Elasticsearch.
type stubGeo struct {
	hits []domain.WarehouseDistance
}

func (s *stubGeo) Nearest(ctx context.Context, lat, lon float64, limit int) ([]domain.WarehouseDistance, error) {
	return s.hits, nil
}

func (s *stubGeo) Warehouses(ctx context.Context) ([]domain.Warehouse, error) {
	return nil, nil
}

func TestIntegration_AvailabilityTracksFulfillment(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.seed(t, "wh_avail", "bread", 4)

	geo := &stubGeo{hits: []domain.WarehouseDistance{
		{Warehouse: domain.Warehouse{ID: "wh_avail"}, DistanceKm: 6},
	}}
	availability := service.NewAvailabilityService(geo, env.cache)

	res, err := availability.Resolve(ctx, "bread", 26.9, 75.8)
	if err != nil || !res.Available || res.Quantity != 4 {
		t.Fatalf("expected 4 available before fulfillment, got %+v (err %v)", res, err)
	}

	queue := newChanQueue(1)
	if err := queue.Publish(ctx, domain.OrderIntent{
		OrderID:    uuid.NewString(),
		CustomerID: "cust-avail",
		Items:      []domain.OrderItem{{ItemID: "bread", WarehouseID: "wh_avail", Quantity: 3}},
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	runWorkerUntilSettled(t, env, queue, 1)

	res, err = availability.Resolve(ctx, "bread", 26.9, 75.8)
	if err != nil {
		t.Fatalf("resolve after fulfillment: %v", err)
	}
	if !res.Available || res.Quantity != 1 {
		t.Errorf("expected 1 available after fulfillment, got %+v", res)
	}
}
