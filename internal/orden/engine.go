package orden

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"taller_orders/internal/audit"
	"taller_orders/internal/errs"
	"taller_orders/internal/model"
	"taller_orders/internal/pricing"
	"taller_orders/internal/stock"

	"gorm.io/gorm"
)

// Engine 工单生命周期引擎：创建、编辑、状态转移、指派、收款、进度。
// 每个公开操作都是单事务的请求/响应：要么全部提交，要么全无副作用。
// 并发正确性依赖存储层事务隔离与行级库存加减，不使用应用级锁。
type Engine struct {
	db     *gorm.DB
	ledger *stock.Ledger
	rec    *audit.Recorder
	// now 可注入以便测试盖章时间。
	now func() time.Time
}

func NewEngine(db *gorm.DB, ledger *stock.Ledger, rec *audit.Recorder) *Engine {
	return &Engine{db: db, ledger: ledger, rec: rec, now: time.Now}
}

// CreateOrderResult 创建操作的完整产物。
type CreateOrderResult struct {
	Order        model.Order         `json:"order"`
	Lines        []model.OrderLine   `json:"lines"`
	Tasks        []model.Task        `json:"tasks"`
	Reservations []model.Reservation `json:"reservations"`
}

// CreateOrder 原子创建工单：校验定价 -> 分配编号 -> 建行 -> 预约库存 -> 派生任务。
// userID 是已认证操作者，显式传入用于审计。
func (e *Engine) CreateOrder(ctx context.Context, userID uint, req pricing.CreateOrderRequest) (*CreateOrderResult, error) {
	now := e.now()
	var result *CreateOrderResult

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := pricing.Validate(tx, e.ledger, req, now)
		if err != nil {
			return err
		}

		estado := model.EstadoPendiente
		if v.WorkerID != nil {
			estado = model.EstadoAsignado
		}

		order := model.Order{
			CustomerID:         v.CustomerID,
			VehicleID:          v.VehicleID,
			WorkerID:           v.WorkerID,
			Prioridad:          v.Prioridad,
			Estado:             estado,
			Modo:               v.Modo,
			Notas:              v.Notas,
			SubtotalCents:      v.SubtotalCents,
			TaxCents:           v.TaxCents,
			TotalCents:         v.TotalCents,
			EstadoPago:         model.PagoPendiente,
			DuracionMinutosMin: v.MinutosMin,
			DuracionMinutosMax: v.MinutosMax,
			Activo:             true,
		}
		fin := v.FechaEstimadaFin
		order.FechaEstimadaFin = &fin

		// 编号唯一冲突时重新生成候选再插，最多 3 次。
		if err := retryOnUniqueConflict(codigoMaxAttempts, func() error {
			codigo, err := nextCodigo(tx, now.Year())
			if err != nil {
				return err
			}
			order.ID = 0
			order.Codigo = codigo
			return tx.Create(&order).Error
		}); err != nil {
			return err
		}

		lines, tasks, reservations, err := e.materializeLines(tx, &order, v)
		if err != nil {
			return err
		}

		for _, wid := range req.Apoyos {
			if err := e.addApoyo(tx, order.ID, wid); err != nil {
				return err
			}
		}

		result = &CreateOrderResult{Order: order, Lines: lines, Tasks: tasks, Reservations: reservations}
		return nil
	})
	if err != nil {
		return nil, wrapEngineErr(err)
	}

	e.rec.Record(ctx, audit.Entry{
		UserID:      userID,
		Accion:      "crear_orden",
		Descripcion: fmt.Sprintf("orden %s creada, total %d", result.Order.Codigo, result.Order.TotalCents),
		Tabla:       "orders",
		OrderID:     result.Order.ID,
		Codigo:      result.Order.Codigo,
	})
	return result, nil
}

// materializeLines 物化已校验的行集：先建服务行（供 servicio_ref 指向），
// 再建产品行并逐行预约库存，最后为服务行尽力派生任务。
// 创建与编辑重建共用这一条路径。
func (e *Engine) materializeLines(tx *gorm.DB, order *model.Order, v *pricing.ValidatedOrder) ([]model.OrderLine, []model.Task, []model.Reservation, error) {
	lines := make([]model.OrderLine, len(v.Lines))
	lineID := make(map[int]uint, len(v.Lines)) // 请求内下标 -> 行 ID

	for i, vl := range v.Lines {
		if vl.Tipo != model.LineaServicio {
			continue
		}
		line := model.OrderLine{
			OrderID:      order.ID,
			Tipo:         model.LineaServicio,
			ServiceID:    vl.ServiceID,
			Cantidad:     vl.Cantidad,
			PrecioCents:  vl.PrecioCents,
			DescuentoPct: vl.DescuentoPct,
			TotalCents:   vl.TotalCents,
			MinutosMin:   vl.MinutosMin,
			MinutosMax:   vl.MinutosMax,
		}
		if err := tx.Create(&line).Error; err != nil {
			return nil, nil, nil, err
		}
		lines[i] = line
		lineID[i] = line.ID
	}

	var reservations []model.Reservation
	for i, vl := range v.Lines {
		if vl.Tipo != model.LineaProducto {
			continue
		}
		line := model.OrderLine{
			OrderID:      order.ID,
			Tipo:         model.LineaProducto,
			ProductID:    vl.ProductID,
			WarehouseID:  vl.WarehouseID,
			LocationID:   vl.LocationID,
			Cantidad:     vl.Cantidad,
			PrecioCents:  vl.PrecioCents,
			DescuentoPct: vl.DescuentoPct,
			TotalCents:   vl.TotalCents,
		}
		if vl.ServicioRef != nil {
			refID := lineID[*vl.ServicioRef]
			line.ServicioRef = &refID
		}
		if err := tx.Create(&line).Error; err != nil {
			return nil, nil, nil, err
		}
		lines[i] = line

		resID, err := e.ledger.Reserve(tx, stock.ReserveInput{
			ProductID:   *vl.ProductID,
			WarehouseID: *vl.WarehouseID,
			LocationID:  vl.LocationID,
			Cantidad:    vl.Cantidad,
			OrderID:     order.ID,
			OrderLineID: line.ID,
			Motivo:      "reserva por orden de trabajo",
			Referencia:  order.Codigo,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		var res model.Reservation
		if err := tx.First(&res, resID).Error; err != nil {
			return nil, nil, nil, err
		}
		reservations = append(reservations, res)

		// 旧版双写：除台账扣桶外，冗余 stock 字段也手工扣一次，
		// 随后的 RecomputeProductStock 会把两条路径收敛到同一推导值。
		if err := tx.Model(&model.Product{}).Where("id = ?", *vl.ProductID).
			Update("stock", gorm.Expr("stock - ?", vl.Cantidad)).Error; err != nil {
			return nil, nil, nil, err
		}
		if err := stock.RecomputeProductStock(tx, *vl.ProductID); err != nil {
			return nil, nil, nil, err
		}
	}

	tasks := e.generateTasks(tx, order, lines, v)
	return lines, tasks, reservations, nil
}

// wrapEngineErr 非分类错误一律按 500 包装，分类错误原样透传。
// 台账的哨兵错误是业务拒绝而非内部故障：校验阶段逐行过了 Available
// 但物化时同一桶被多行合计超扣，会在 Reserve 第一次浮现。
func wrapEngineErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*errs.Error); ok {
		return err
	}
	if errors.Is(err, stock.ErrInsufficientStock) {
		return errs.Business("stock_insuficiente", "%s", err.Error())
	}
	if errors.Is(err, stock.ErrAlreadyConfirmed) {
		return errs.Business("reserva_confirmada", "%s", err.Error())
	}
	log.Printf("orden engine: %v", err)
	return errs.Internal(err)
}
