package queue

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"taller_orders/internal/model"

	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

// Consumer 把 Kafka 上的工单事件归档进 order_events 表，供下游报表/对账消费。
type Consumer struct {
	r  *kafka.Reader
	db *gorm.DB
}

func NewConsumer(brokers []string, topic, groupID string, db *gorm.DB) *Consumer {
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
		}),
		db: db,
	}
}

func (c *Consumer) Close() error { return c.r.Close() }

func (c *Consumer) Run(ctx context.Context) {
	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			return // ctx cancel / 连接断开等
		}

		var msg EventMessage
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			log.Printf("consumer unmarshal: %v", err)
			continue
		}
		if err := msg.Validate(); err != nil {
			log.Printf("consumer invalid event: %v", err)
			continue
		}

		ev := &model.OrderEvent{
			EventID: msg.EventID,
			OrderID: msg.OrderID,
			Codigo:  msg.Codigo,
			Accion:  msg.Accion,
			UserID:  msg.UserID,
		}
		if err := c.db.Create(ev).Error; err != nil {
			// 幂等：重复消息导致 UNIQUE 冲突，直接当作已归档。
			if errorsLikeUnique(err) {
				continue
			}
			log.Printf("consumer db create: %v", err)
			continue
		}
	}
}

func errorsLikeUnique(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE") || strings.Contains(s, "unique")
}
