package model

import (
	"time"

	"gorm.io/gorm"
)

// OrderEstado 工单生命周期状态（固定状态图，见 orden 包的转移表）。
type OrderEstado string

const (
	EstadoPendiente  OrderEstado = "pendiente"
	EstadoAsignado   OrderEstado = "asignado"
	EstadoPorHacer   OrderEstado = "por_hacer"
	EstadoEnProceso  OrderEstado = "en_proceso"
	EstadoPausado    OrderEstado = "pausado"
	EstadoCompletado OrderEstado = "completado"
	EstadoEntregado  OrderEstado = "entregado"
)

// EstadoPago 按累计收款推导：pendiente / parcial / pagado。
const (
	PagoPendiente = "pendiente"
	PagoParcial   = "parcial"
	PagoPagado    = "pagado"
)

// Modo 控制工单是否允许产品行。
const (
	ModoSoloServicios       = "solo_servicios"
	ModoServiciosYProductos = "servicios_y_productos"
)

// TaxRatePct 固定税率（18%），total = subtotal + round(subtotal * 0.18)。
const TaxRatePct = 18

// Order 工单（"transacción" kind=orden）。
// 金额一律以分为单位；时长一律以分钟为单位。
// 不做物理删除：停用走 Activo 标记。
type Order struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Codigo     string      `gorm:"size:32;uniqueIndex;not null" json:"codigo"` // ORD-<año>-<secuencia>
	CustomerID uint        `gorm:"not null;index" json:"customer_id"`
	VehicleID  uint        `gorm:"not null;index" json:"vehicle_id"`
	WorkerID   *uint       `gorm:"index" json:"worker_id"` // 负责技师，可空
	Prioridad  string      `gorm:"size:16;not null;default:media" json:"prioridad"`
	Estado     OrderEstado `gorm:"size:16;not null;index" json:"estado"`
	Modo       string      `gorm:"size:32;not null" json:"modo"`
	Notas      string      `gorm:"size:512" json:"notas"`

	SubtotalCents int64  `gorm:"not null;default:0" json:"subtotal_cents"`
	TaxCents      int64  `gorm:"not null;default:0" json:"tax_cents"`
	TotalCents    int64  `gorm:"not null;default:0" json:"total_cents"`
	PagadoCents   int64  `gorm:"not null;default:0" json:"pagado_cents"`
	EstadoPago    string `gorm:"size:16;not null;default:pendiente" json:"estado_pago"`

	// 预估与实际时间戳。实际时间戳只在首次进入对应状态时盖章一次。
	FechaEstimadaFin *time.Time `json:"fecha_estimada_fin"`
	FechaInicio      *time.Time `json:"fecha_inicio"`
	FechaFinReal     *time.Time `json:"fecha_fin_real"`
	FechaEntrega     *time.Time `json:"fecha_entrega"`
	EntregadoPor     *uint      `json:"entregado_por"`

	DuracionMinutosMin int `gorm:"not null;default:0" json:"duracion_minutos_min"`
	DuracionMinutosMax int `gorm:"not null;default:0" json:"duracion_minutos_max"`

	Activo bool `gorm:"not null;default:true" json:"activo"`
}

func (Order) TableName() string { return "orders" }

// LineTipo 工单行类型。
const (
	LineaProducto = "producto"
	LineaServicio = "servicio"
)

// OrderLine 工单行：服务行或产品行。
// 产品行可通过 ServicioRef 关联同一工单内的一条服务行（该零件消耗于该服务），
// 约束：同一服务行最多被一条产品行引用。
// 行的数量/单价/折扣/小计创建后不可改，只能在编辑时整行替换。
type OrderLine struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrderID     uint   `gorm:"not null;index" json:"order_id"`
	Tipo        string `gorm:"size:16;not null" json:"tipo"`
	ProductID   *uint  `gorm:"index" json:"product_id"`
	ServiceID   *uint  `gorm:"index" json:"service_id"`
	WarehouseID *uint  `json:"warehouse_id"`
	LocationID  *uint  `json:"location_id"`
	ServicioRef *uint  `gorm:"index" json:"servicio_ref"` // 指向同工单的服务行 ID

	Cantidad     int   `gorm:"not null" json:"cantidad"`
	PrecioCents  int64 `gorm:"not null" json:"precio_cents"`
	DescuentoPct int   `gorm:"not null;default:0" json:"descuento_pct"` // 0-100
	TotalCents   int64 `gorm:"not null" json:"total_cents"`

	// 服务行的预估分钟（已乘数量），产品行为 0。
	MinutosMin int `gorm:"not null;default:0" json:"minutos_min"`
	MinutosMax int `gorm:"not null;default:0" json:"minutos_max"`
}

func (OrderLine) TableName() string { return "order_lines" }

// OrderWorker 支援技师名册（apoyo）。(order_id, worker_id) 唯一，重复添加为 no-op。
type OrderWorker struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	OrderID  uint `gorm:"not null;uniqueIndex:idx_order_worker" json:"order_id"`
	WorkerID uint `gorm:"not null;uniqueIndex:idx_order_worker" json:"worker_id"`
}

func (OrderWorker) TableName() string { return "order_workers" }

// Payment 轻量收款记录，随时可附加，不阻塞任何状态转移。
type Payment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	OrderID       uint   `gorm:"not null;index" json:"order_id"`
	MontoCents    int64  `gorm:"not null" json:"monto_cents"`
	Metodo        string `gorm:"size:32" json:"metodo"`
	RegistradoPor uint   `gorm:"not null" json:"registrado_por"`
}

func (Payment) TableName() string { return "payments" }
