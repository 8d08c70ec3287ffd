package queue

import "fmt"

// EventMessage 是写入 Kafka 的工单变更事件（crear_orden / transicion_* / editar_lineas ...）。
type EventMessage struct {
	EventID string `json:"event_id"`
	OrderID uint   `json:"order_id"`
	Codigo  string `json:"codigo"`
	Accion  string `json:"accion"`
	UserID  uint   `json:"user_id"`
}

// Validate 做最小字段校验，防止消费者处理脏消息。
func (m EventMessage) Validate() error {
	if m.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if m.OrderID == 0 {
		return fmt.Errorf("order_id is required")
	}
	if m.Codigo == "" {
		return fmt.Errorf("codigo is required")
	}
	if m.Accion == "" {
		return fmt.Errorf("accion is required")
	}
	return nil
}
