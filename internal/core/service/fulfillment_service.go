package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/swiftkart/dispatch/internal/core/domain"
	"github.com/swiftkart/dispatch/internal/port"
)

// Outcome classifies one processed queue message and decides its fate on the
// queue: applied, duplicate and poison messages are acked; insufficient
// stock and transient failures are requeued for a later delivery.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeDuplicate
	OutcomePoison
	OutcomeInsufficientStock
	OutcomeTransient
)

// FulfillmentService turns raw queue messages into ledger transactions.
type FulfillmentService struct {
	ledger port.Ledger
	cache  port.InventoryCache
	log    zerolog.Logger
}

func NewFulfillmentService(ledger port.Ledger, cache port.InventoryCache, log zerolog.Logger) *FulfillmentService {
	return &FulfillmentService{ledger: ledger, cache: cache, log: log}
}

// Process applies one message body to the ledger. It never returns an error;
// every failure mode maps to an Outcome the worker loop acts on.
func (s *FulfillmentService) Process(ctx context.Context, body []byte) Outcome {
	intent, err := parseIntent(body)
	if err != nil {
		// A malformed message can never become well-formed on retry.
		s.log.Error().Err(err).Msg("dropping poison message")
		return OutcomePoison
	}

	log := s.log.With().Str("order_id", intent.OrderID).Logger()

	levels, err := s.ledger.FulfillOrder(ctx, intent)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAlreadyApplied):
		log.Info().Msg("duplicate delivery, order already applied")
		return OutcomeDuplicate
	case errors.Is(err, domain.ErrInsufficientStock):
		log.Warn().Err(err).Msg("insufficient stock, order will be retried")
		return OutcomeInsufficientStock
	default:
		log.Error().Err(err).Msg("ledger transaction failed")
		return OutcomeTransient
	}

	// The ledger has committed; refresh the fast copy so availability
	// answers catch up. A failure here only extends staleness.
	for _, lvl := range levels {
		if err := s.cache.SetStock(ctx, lvl.WarehouseID, lvl.ItemID, lvl.Quantity); err != nil {
			log.Warn().Err(err).
				Str("warehouse_id", lvl.WarehouseID).
				Str("item_id", lvl.ItemID).
				Msg("cache refresh failed")
		}
	}

	log.Info().Int("items", len(intent.Items)).Msg("order fulfilled")
	return OutcomeApplied
}

func parseIntent(body []byte) (domain.OrderIntent, error) {
	var intent domain.OrderIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return intent, fmt.Errorf("decode intent: %w", err)
	}
	if _, err := uuid.Parse(intent.OrderID); err != nil {
		return intent, fmt.Errorf("invalid order_id %q: %w", intent.OrderID, err)
	}
	if len(intent.Items) == 0 {
		return intent, errors.New("intent has no items")
	}
	for _, item := range intent.Items {
		if item.ItemID == "" || item.WarehouseID == "" || item.Quantity <= 0 {
			return intent, fmt.Errorf("invalid line item %+v", item)
		}
	}
	return intent, nil
}

// Worker drives the receive-process-settle loop against the order queue. Any
// number of workers may run against the same queue and ledger; correctness
// rests entirely on the ledger's row locks and the idempotency record, not
// on coordination between workers.
type Worker struct {
	queue      port.OrderQueue
	svc        *FulfillmentService
	log        zerolog.Logger
	backoff    time.Duration
	msgTimeout time.Duration
}

func NewWorker(queue port.OrderQueue, svc *FulfillmentService, log zerolog.Logger) *Worker {
	return &Worker{
		queue:      queue,
		svc:        svc,
		log:        log,
		backoff:    5 * time.Second,
		msgTimeout: 5 * time.Second,
	}
}

// Run consumes until ctx is cancelled. Transient receive errors are logged
// and followed by a fixed backoff; they never terminate the loop. An
// in-flight message is always settled before Run returns.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info().Msg("fulfillment worker started")
	for {
		msg, err := w.queue.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.log.Info().Msg("fulfillment worker stopping")
				return
			}
			w.log.Error().Err(err).Dur("backoff", w.backoff).Msg("queue receive failed")
			select {
			case <-time.After(w.backoff):
			case <-ctx.Done():
				w.log.Info().Msg("fulfillment worker stopping")
				return
			}
			continue
		}

		w.handle(msg)

		if ctx.Err() != nil {
			w.log.Info().Msg("fulfillment worker stopping")
			return
		}
	}
}

// handle settles one message even when shutdown has already begun, so its
// lease ends in an explicit ack or requeue rather than expiring.
func (w *Worker) handle(msg *port.Message) {
	// The timeout bounds the whole attempt, row-lock waits included, so one
	// stuck transaction cannot stall this worker indefinitely.
	ctx, cancel := context.WithTimeout(context.Background(), w.msgTimeout)
	defer cancel()

	switch w.svc.Process(ctx, msg.Body) {
	case OutcomeApplied, OutcomeDuplicate, OutcomePoison:
		if err := w.queue.Ack(ctx, msg); err != nil {
			// The ledger is already consistent; the redelivery will hit the
			// idempotency record and be acked then.
			w.log.Error().Err(err).Msg("ack failed")
		}
	case OutcomeInsufficientStock, OutcomeTransient:
		if err := w.queue.Requeue(ctx, msg); err != nil {
			w.log.Error().Err(err).Msg("requeue failed")
		}
	}
}
