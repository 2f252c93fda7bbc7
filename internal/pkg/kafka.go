package pkg

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessageWriter kafka.Writer 的最小子集，测试里替换
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	writer MessageWriter
	topic  string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// NewKafkaProducer 未启用或没有 broker 时返回 nil
func NewKafkaProducer(cfg KafkaConfig) *KafkaProducer {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		return nil
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Async:                  false,
	}
	return &KafkaProducer{writer: w, topic: cfg.Topic}
}

func NewKafkaProducerWithWriter(w MessageWriter, topic string) *KafkaProducer {
	return &KafkaProducer{writer: w, topic: topic}
}

func (p *KafkaProducer) Topic() string {
	return p.topic
}

func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Send 同一 key 落在同一分区，保证单用户消息有序
func (p *KafkaProducer) Send(ctx context.Context, key string, value []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
	}
	return p.writer.WriteMessages(ctx, msg)
}
