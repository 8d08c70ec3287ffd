package model

import "time"

// AuditLog 审计条目：谁、做了什么、影响哪张表。成功提交后追加一次。
type AuditLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID      uint   `gorm:"not null;index" json:"user_id"`
	Accion      string `gorm:"size:64;not null" json:"accion"`
	Descripcion string `gorm:"size:512" json:"descripcion"`
	Tabla       string `gorm:"size:64;not null" json:"tabla"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// OrderEvent 经 outbox -> Kafka 回流的工单事件归档（consumer 写入）。
// EventID 唯一，重复消费冲突时视为已归档。
type OrderEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	EventID string `gorm:"size:64;uniqueIndex;not null" json:"event_id"`
	OrderID uint   `gorm:"not null;index" json:"order_id"`
	Codigo  string `gorm:"size:32;index" json:"codigo"`
	Accion  string `gorm:"size:64;not null" json:"accion"`
	UserID  uint   `gorm:"not null" json:"user_id"`
}

func (OrderEvent) TableName() string { return "order_events" }
