package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/atharvakonge/stock-portfolio/internal/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher announces executed trades to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, trade models.Trade) error
	Close() error
}

// messageWriter is the part of *kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one JSON message per trade, keyed by username so a
// user's trades stay ordered within a partition.
type KafkaPublisher struct {
	w      messageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, trade models.Trade) error {
	b, err := json.Marshal(trade)
	if err != nil {
		return err
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(trade.Username),
		Value: b,
		Time:  trade.ExecutedAt,
	})
	if err != nil {
		return err
	}
	p.logger.Debug("trade published", zap.String("trade_id", trade.ID.String()))
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// Nop discards events; used when no brokers are configured
type Nop struct{}

func (Nop) Publish(context.Context, models.Trade) error { return nil }
func (Nop) Close() error                                { return nil }
