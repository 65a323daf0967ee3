package events

import (
	"context"
	"fmt"
	"time"

	"smart_cycle_market/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// event types
const (
	ChatAppended   = "chat.appended"
	ProductListed  = "product.listed"
	ProductRemoved = "product.removed"
)

const contentType = "application/x-protobuf"

// Event domain event, Data values must be strings, numbers, bools or nested maps
type Event struct {
	Type string
	Key  string
	At   time.Time
	Data map[string]interface{}
}

// Publisher emits domain events
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as protobuf Struct messages keyed by Event.Key
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher wrap a kafka writer
func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish encode and write e
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := Encode(e)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Key),
		Value: value,
		Time:  e.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
			{Key: "content-type", Value: []byte(contentType)},
		},
	})
}

// Close flush and close the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Encode marshal e into a protobuf Struct
func Encode(e Event) ([]byte, error) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s, err := structpb.NewStruct(map[string]interface{}{
		"type": e.Type,
		"key":  e.Key,
		"at":   e.At.UTC().Format(time.RFC3339Nano),
		"data": e.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", e.Type, err)
	}
	return proto.Marshal(s)
}

// Decode reverse of Encode
func Decode(b []byte) (Event, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	m := s.AsMap()

	e := Event{}
	e.Type, _ = m["type"].(string)
	e.Key, _ = m["key"].(string)
	if at, ok := m["at"].(string); ok {
		e.At, _ = time.Parse(time.RFC3339Nano, at)
	}
	e.Data, _ = m["data"].(map[string]interface{})
	return e, nil
}

// Nop publisher used when no broker is configured
type Nop struct{}

// Publish log only
func (Nop) Publish(_ context.Context, e Event) error {
	logger.Log.Debug("event", zap.String("type", e.Type), zap.String("key", e.Key))
	return nil
}

// Close nothing to close
func (Nop) Close() error { return nil }
