package model

import (
	"time"

	"gorm.io/gorm"
)

// StockBucket (producto, almacén, ubicación) 粒度的可用库存。
// LocationID 为空时用 0 占位，保证唯一索引可比较。
type StockBucket struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ProductID   uint  `gorm:"not null;uniqueIndex:idx_stock_bucket" json:"product_id"`
	WarehouseID uint  `gorm:"not null;uniqueIndex:idx_stock_bucket" json:"warehouse_id"`
	LocationID  uint  `gorm:"not null;default:0;uniqueIndex:idx_stock_bucket" json:"location_id"`
	Available   int64 `gorm:"not null;default:0" json:"available"`
}

func (StockBucket) TableName() string { return "stock_buckets" }

// 库存流水类型。
const (
	MovReserva           = "reserva"
	MovLiberacion        = "liberacion"
	MovSalidaConfirmada  = "salida_confirmada"
	MovRestauracionLinea = "restauracion_linea" // 编辑工单时镜像回补旧产品行的手工扣减
	MovAjusteManual      = "ajuste_manual"
)

// StockMovement 每次库存桶变动的流水（正数入、负数出）。
type StockMovement struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ProductID     uint   `gorm:"not null;index" json:"product_id"`
	WarehouseID   uint   `gorm:"not null" json:"warehouse_id"`
	LocationID    uint   `gorm:"not null;default:0" json:"location_id"`
	Tipo          string `gorm:"size:32;not null" json:"tipo"`
	Cantidad      int64  `gorm:"not null" json:"cantidad"`
	StockAnterior int64  `gorm:"not null" json:"stock_anterior"`
	StockNuevo    int64  `gorm:"not null" json:"stock_nuevo"`
	Motivo        string `gorm:"size:255" json:"motivo"`
	ReferenciaID  string `gorm:"size:64;index" json:"referencia_id"` // 工单编号 / 预约 id 等
}

func (StockMovement) TableName() string { return "stock_movements" }
