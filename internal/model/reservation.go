package model

import (
	"time"

	"gorm.io/gorm"
)

// Reservation 对某个库存桶的占用。PENDING/CONFIRMED 占用可用库存，RELEASED 归还。
type ReservationEstado string

const (
	ReservaPendiente  ReservationEstado = "PENDING"
	ReservaConfirmada ReservationEstado = "CONFIRMED"
	ReservaLiberada   ReservationEstado = "RELEASED"
)

// Reservation 归属于且仅归属于一条产品行，与该行同事务创建。
type Reservation struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrderID     uint              `gorm:"not null;index" json:"order_id"`
	OrderLineID uint              `gorm:"not null;uniqueIndex" json:"order_line_id"`
	ProductID   uint              `gorm:"not null;index" json:"product_id"`
	WarehouseID uint              `gorm:"not null" json:"warehouse_id"`
	LocationID  *uint             `json:"location_id"`
	Cantidad    int               `gorm:"not null" json:"cantidad"`
	Estado      ReservationEstado `gorm:"size:16;not null;index" json:"estado"`
}

func (Reservation) TableName() string { return "reservations" }
