package orden

import (
	"errors"
	"fmt"

	"taller_orders/internal/errs"
	"taller_orders/internal/model"
	"taller_orders/internal/pricing"
	"taller_orders/internal/stock"

	"gorm.io/gorm"
)

// EditRequest 整行/整车替换。仅在 pendiente 状态允许。
type EditRequest struct {
	VehicleID *uint              `json:"vehicle_id"` // 缺省保留原车辆
	Items     []pricing.LineItem `json:"items"`
	Notas     *string            `json:"notas"`
}

// applyEdit 原子重物化：释放旧 PENDING 预约 -> 镜像回补手工扣减 -> 删任务删行 ->
// 重新校验定价 -> 重建行/任务/预约 -> 重算工单金额与时长。
func (e *Engine) applyEdit(tx *gorm.DB, order *model.Order, req EditRequest) error {
	if order.Estado != model.EstadoPendiente {
		return errs.Business("edicion_fuera_de_pendiente",
			"orden %s en estado %q: solo se puede editar en pendiente", order.Codigo, order.Estado)
	}

	var oldLines []model.OrderLine
	if err := tx.Where("order_id = ?", order.ID).Find(&oldLines).Error; err != nil {
		return err
	}

	for _, line := range oldLines {
		if line.Tipo != model.LineaProducto {
			continue
		}
		var res model.Reservation
		err := tx.Where("order_line_id = ?", line.ID).First(&res).Error
		if err == nil && res.Estado == model.ReservaPendiente {
			motivo := fmt.Sprintf("liberacion por edicion de orden %s", order.Codigo)
			if err := e.ledger.Release(tx, res.ID, motivo, order.Codigo); err != nil {
				return err
			}
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// 镜像回补创建时的手工扣减；与台账 Release 独立，两条路径保持同步，
		// 随后的重推导会收敛到同一个值。
		if line.ProductID != nil {
			var prod model.Product
			if err := tx.First(&prod, *line.ProductID).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.Product{}).Where("id = ?", *line.ProductID).
				Update("stock", gorm.Expr("stock + ?", line.Cantidad)).Error; err != nil {
				return err
			}
			mov := model.StockMovement{
				ProductID:     *line.ProductID,
				Tipo:          model.MovRestauracionLinea,
				Cantidad:      int64(line.Cantidad),
				StockAnterior: prod.Stock,
				StockNuevo:    prod.Stock + int64(line.Cantidad),
				Motivo:        fmt.Sprintf("restauracion de linea por edicion de orden %s", order.Codigo),
				ReferenciaID:  order.Codigo,
			}
			if line.WarehouseID != nil {
				mov.WarehouseID = *line.WarehouseID
			}
			if line.LocationID != nil {
				mov.LocationID = *line.LocationID
			}
			if err := tx.Create(&mov).Error; err != nil {
				return err
			}
			if err := stock.RecomputeProductStock(tx, *line.ProductID); err != nil {
				return err
			}
		}
	}

	if err := tx.Where("order_id = ?", order.ID).Delete(&model.Task{}).Error; err != nil {
		return err
	}
	if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderLine{}).Error; err != nil {
		return err
	}

	vehicleID := order.VehicleID
	if req.VehicleID != nil {
		vehicleID = *req.VehicleID
	}
	notas := order.Notas
	if req.Notas != nil {
		notas = *req.Notas
	}

	v, err := pricing.Validate(tx, e.ledger, pricing.CreateOrderRequest{
		CustomerID: order.CustomerID,
		VehicleID:  vehicleID,
		WorkerID:   order.WorkerID,
		Prioridad:  order.Prioridad,
		Modo:       order.Modo,
		Notas:      notas,
		Items:      req.Items,
	}, e.now())
	if err != nil {
		return err
	}

	fin := v.FechaEstimadaFin
	if err := tx.Model(&model.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
		"vehicle_id":           vehicleID,
		"notas":                notas,
		"subtotal_cents":       v.SubtotalCents,
		"tax_cents":            v.TaxCents,
		"total_cents":          v.TotalCents,
		"duracion_minutos_min": v.MinutosMin,
		"duracion_minutos_max": v.MinutosMax,
		"fecha_estimada_fin":   fin,
	}).Error; err != nil {
		return err
	}
	if err := tx.First(order, order.ID).Error; err != nil {
		return err
	}

	_, _, _, err = e.materializeLines(tx, order, v)
	return err
}
