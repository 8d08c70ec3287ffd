package orden

import (
	"fmt"

	"taller_orders/internal/errs"
	"taller_orders/internal/model"

	"gorm.io/gorm"
)

// applyTransition 校验并执行一次状态转移及其进入副作用。
// 时间戳只在首次进入对应状态时盖章（已盖过的不再覆盖）。
func (e *Engine) applyTransition(tx *gorm.DB, order *model.Order, to model.OrderEstado, userID uint) error {
	if !IsEstado(to) {
		return errs.Validation("estado_invalido", "estado %q no existe en el grafo", to)
	}
	if !CanTransition(order.Estado, to) {
		return transitionError(order.Estado, to)
	}

	now := e.now()
	updates := map[string]any{"estado": to}

	switch to {
	case model.EstadoPorHacer:
		// 前置：至少一条服务行 + 负责技师已指派。
		var nServicios int64
		if err := tx.Model(&model.OrderLine{}).
			Where("order_id = ? AND tipo = ?", order.ID, model.LineaServicio).
			Count(&nServicios).Error; err != nil {
			return err
		}
		if nServicios == 0 {
			return errs.Business("sin_lineas_servicio",
				"orden %s no puede pasar a por_hacer sin lineas de servicio", order.Codigo)
		}
		if order.WorkerID == nil {
			return errs.Business("sin_trabajador",
				"orden %s no puede pasar a por_hacer sin trabajador responsable", order.Codigo)
		}
		if err := promoteTasksPorHacer(tx, order.ID); err != nil {
			return err
		}

	case model.EstadoEnProceso:
		if order.FechaInicio == nil {
			updates["fecha_inicio"] = now
		}

	case model.EstadoCompletado:
		if order.FechaFinReal == nil {
			updates["fecha_fin_real"] = now
		}
		if err := e.confirmReservations(tx, order); err != nil {
			return err
		}

	case model.EstadoEntregado:
		if order.FechaEntrega == nil {
			updates["fecha_entrega"] = now
			updates["entregado_por"] = userID
		}
		// completado 时已确认过则此处幂等。
		if err := e.confirmReservations(tx, order); err != nil {
			return err
		}
	}

	if err := tx.Model(&model.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
		return err
	}
	order.Estado = to
	return tx.First(order, order.ID).Error
}

// confirmReservations 把工单名下全部 PENDING 预约确认为 CONFIRMED。
func (e *Engine) confirmReservations(tx *gorm.DB, order *model.Order) error {
	var pendientes []model.Reservation
	if err := tx.Where("order_id = ? AND estado = ?", order.ID, model.ReservaPendiente).
		Find(&pendientes).Error; err != nil {
		return err
	}
	for _, res := range pendientes {
		motivo := fmt.Sprintf("salida confirmada por cierre de orden %s", order.Codigo)
		if err := e.ledger.Confirm(tx, res.ID, motivo, order.Codigo); err != nil {
			return err
		}
	}
	return nil
}
