package pricing

import "time"

// LineItem 创建/编辑工单时的一条原始行项目。
// Tipo 可缺省：同一个 id 可能同时命中产品表和服务表，由解析策略消歧。
type LineItem struct {
	ItemID       uint   `json:"item_id"`
	Tipo         string `json:"tipo"` // "" | producto | servicio
	Cantidad     int    `json:"cantidad"`
	PrecioCents  int64  `json:"precio_cents"`
	DescuentoPct int    `json:"descuento_pct"`
	WarehouseID  *uint  `json:"almacen_id"`
	UbicacionID  *uint  `json:"ubicacion_id"`
	// ServicioRef 指向本次请求 items 内服务行的下标（零件消耗于该服务）。
	ServicioRef *int `json:"servicio_ref"`
}

// CreateOrderRequest 创建工单的已认证载荷（表单/向导层已剥离）。
type CreateOrderRequest struct {
	CustomerID uint       `json:"customer_id"`
	VehicleID  uint       `json:"vehicle_id"`
	WorkerID   *uint      `json:"worker_id"`
	Apoyos     []uint     `json:"apoyos"`
	Prioridad  string     `json:"prioridad"`
	Modo       string     `json:"modo"`
	Notas      string     `json:"notas"`
	Items      []LineItem `json:"items"`
	// 调用方可显式给出完工预估；缺省时按聚合最大分钟数推算。
	FechaEstimadaFin *time.Time `json:"fecha_estimada_fin"`
}

// ValidatedLine 校验通过并完成定价的一条行。
type ValidatedLine struct {
	Tipo        string
	ProductID   *uint
	ServiceID   *uint
	WarehouseID *uint
	LocationID  *uint
	ServicioRef *int // 仍是请求内下标，建行时再换算成行 ID

	Cantidad     int
	PrecioCents  int64
	DescuentoPct int
	TotalCents   int64

	MinutosMin int
	MinutosMax int
}

// ValidatedOrder 校验与定价的完整产物，引擎在同一事务内物化它。
type ValidatedOrder struct {
	CustomerID uint
	VehicleID  uint
	WorkerID   *uint
	Prioridad  string
	Modo       string
	Notas      string

	Lines []ValidatedLine

	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64

	MinutosMin       int
	MinutosMax       int
	FechaEstimadaFin time.Time

	DefaultWarehouseID uint
}
