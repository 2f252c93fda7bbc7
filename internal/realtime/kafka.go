package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"campus_hub/internal/pkg"
)

// KafkaPublisher 把推送镜像到 kafka，供离线消费（审计、邮件等）
type KafkaPublisher struct {
	producer *pkg.KafkaProducer
	now      func() time.Time
}

type kafkaRecord struct {
	Identity string    `json:"identity"`
	Event    string    `json:"event"`
	Data     any       `json:"data"`
	SentAt   time.Time `json:"sent_at"`
}

func NewKafkaPublisher(producer *pkg.KafkaProducer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, identity string, msg Message) error {
	value, err := json.Marshal(kafkaRecord{
		Identity: identity,
		Event:    msg.Event,
		Data:     msg.Data,
		SentAt:   p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal kafka record: %w", err)
	}
	return p.producer.Send(ctx, identity, value)
}
