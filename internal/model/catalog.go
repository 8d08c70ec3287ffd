package model

import (
	"time"

	"gorm.io/gorm"
)

// 时间单位换算因子（服务预估时长 -> 分钟）。
const (
	UnidadMinutos = "minutos"
	UnidadHoras   = "horas"
	UnidadDias    = "dias"
	UnidadSemanas = "semanas"
)

// MinutesPerUnit 返回时间单位对应的分钟因子，未知单位返回 0。
func MinutesPerUnit(unidad string) int {
	switch unidad {
	case UnidadMinutos:
		return 1
	case UnidadHoras:
		return 60
	case UnidadDias:
		return 1440
	case UnidadSemanas:
		return 10080
	default:
		return 0
	}
}

// Customer 车间客户。
type Customer struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Nombre string `gorm:"size:128;not null" json:"nombre"`
	Activo bool   `gorm:"not null;default:true" json:"activo"`
}

func (Customer) TableName() string { return "customers" }

// Vehicle 客户车辆，归属于一个客户。
type Vehicle struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CustomerID uint   `gorm:"not null;index" json:"customer_id"`
	Placa      string `gorm:"size:32;not null" json:"placa"`
	Marca      string `gorm:"size:64" json:"marca"`
	Modelo     string `gorm:"size:64" json:"modelo"`
	Activo     bool   `gorm:"not null;default:true" json:"activo"`
}

func (Vehicle) TableName() string { return "vehicles" }

// Worker 技师（机械师），可作为工单负责人或支援人员。
type Worker struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Nombre string `gorm:"size:128;not null" json:"nombre"`
	Activo bool   `gorm:"not null;default:true" json:"activo"`
}

func (Worker) TableName() string { return "workers" }

// Warehouse 仓库。工单产品行必须能解析到一个仓库（显式或默认激活仓库）。
type Warehouse struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Nombre string `gorm:"size:128;not null" json:"nombre"`
	Activo bool   `gorm:"not null;default:true" json:"activo"`
}

func (Warehouse) TableName() string { return "warehouses" }

// Location 仓库内库位，可选粒度。
type Location struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	WarehouseID uint   `gorm:"not null;index" json:"warehouse_id"`
	Nombre      string `gorm:"size:128;not null" json:"nombre"`
	Activo      bool   `gorm:"not null;default:true" json:"activo"`
}

func (Location) TableName() string { return "locations" }

// Product 备件/商品。
// Stock 是冗余展示字段：每次台账变动后由 Σ(桶可用量) + StockLegacy 重新推导。
// StockLegacy 保留旧版单桶台账余额（尚未迁移到多仓桶的存量数据）。
type Product struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Nombre      string `gorm:"size:128;not null" json:"nombre"`
	PrecioCents int64  `gorm:"not null;default:0" json:"precio_cents"` // 单位：分
	Stock       int64  `gorm:"not null;default:0" json:"stock"`
	StockLegacy int64  `gorm:"not null;default:0" json:"stock_legacy"`
	Activo      bool   `gorm:"not null;default:true" json:"activo"`
}

func (Product) TableName() string { return "products" }

// Service 维修服务项目，带预估时长区间。
type Service struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Nombre       string `gorm:"size:128;not null" json:"nombre"`
	PrecioCents  int64  `gorm:"not null;default:0" json:"precio_cents"` // 单位：分
	TiempoMinimo int    `gorm:"not null;default:0" json:"tiempo_minimo"`
	TiempoMaximo int    `gorm:"not null;default:0" json:"tiempo_maximo"`
	UnidadTiempo string `gorm:"size:16;not null;default:minutos" json:"unidad_tiempo"`
	Activo       bool   `gorm:"not null;default:true" json:"activo"`
}

func (Service) TableName() string { return "services" }
