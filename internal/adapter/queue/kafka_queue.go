package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/swiftkart/dispatch/internal/core/domain"
	"github.com/swiftkart/dispatch/internal/port"
)

const attemptHeader = "x-delivery-attempt"

// KafkaQueue adapts a Kafka topic to the order queue contract. Kafka has no
// per-message visibility lease, so Requeue appends a fresh copy of the
// message and only then commits the original offset; a crash in between
// redelivers the original rather than losing it. The copy carries a
// delivery-attempt counter in a header.
type KafkaQueue struct {
	reader *kafka.Reader
	writer *kafka.Writer
}

func NewKafkaQueue(reader *kafka.Reader, writer *kafka.Writer) *KafkaQueue {
	return &KafkaQueue{reader: reader, writer: writer}
}

func (q *KafkaQueue) Receive(ctx context.Context) (*port.Message, error) {
	msg, err := q.reader.FetchMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch message: %w", err)
	}
	return &port.Message{
		Body:    msg.Value,
		Attempt: attemptFrom(msg.Headers),
		Receipt: msg,
	}, nil
}

func (q *KafkaQueue) Ack(ctx context.Context, msg *port.Message) error {
	raw, ok := msg.Receipt.(kafka.Message)
	if !ok {
		return errors.New("message carries no kafka receipt")
	}
	if err := q.reader.CommitMessages(ctx, raw); err != nil {
		return fmt.Errorf("commit offset: %w", err)
	}
	return nil
}

func (q *KafkaQueue) Requeue(ctx context.Context, msg *port.Message) error {
	raw, ok := msg.Receipt.(kafka.Message)
	if !ok {
		return errors.New("message carries no kafka receipt")
	}

	redelivery := kafka.Message{
		Key:   raw.Key,
		Value: raw.Value,
		Headers: []kafka.Header{{
			Key:   attemptHeader,
			Value: []byte(strconv.Itoa(msg.Attempt + 1)),
		}},
	}
	if err := q.writer.WriteMessages(ctx, redelivery); err != nil {
		return fmt.Errorf("requeue message: %w", err)
	}
	if err := q.reader.CommitMessages(ctx, raw); err != nil {
		return fmt.Errorf("commit requeued offset: %w", err)
	}
	return nil
}

func (q *KafkaQueue) Close() error {
	rerr := q.reader.Close()
	werr := q.writer.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}

func attemptFrom(headers []kafka.Header) int {
	for _, h := range headers {
		if h.Key != attemptHeader {
			continue
		}
		if n, err := strconv.Atoi(string(h.Value)); err == nil {
			return n
		}
	}
	return 0
}

// KafkaPublisher writes brand-new order intents, keyed by order id so
// redeliveries of one order land on the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, intent domain.OrderIntent) error {
	value, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("encode intent: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(intent.OrderID),
		Value: value,
	}); err != nil {
		return fmt.Errorf("publish intent: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
