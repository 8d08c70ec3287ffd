package orden

import (
	"context"
	"errors"
	"fmt"
	"log"

	"taller_orders/internal/audit"
	"taller_orders/internal/errs"
	"taller_orders/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpdateOrderRequest 更新操作的伞形载荷：载荷带哪部分就应用哪部分。
// 应用顺序固定：编辑 -> 指派 -> 名册 -> 状态转移；收款在主事务之外尽力登记。
type UpdateOrderRequest struct {
	OrderID uint `json:"order_id"`

	Edit              *EditRequest       `json:"edit"`
	AsignarTrabajador *uint              `json:"asignar_trabajador"`
	AgregarApoyos     []uint             `json:"agregar_apoyos"`
	QuitarApoyos      []uint             `json:"quitar_apoyos"`
	NuevoEstado       *model.OrderEstado `json:"nuevo_estado"`
	Pago              *PagoRequest       `json:"pago"`
}

// UpdateOrderResult 更新后的工单、推导进度与（若登记成功的）收款。
type UpdateOrderResult struct {
	Order    model.Order    `json:"order"`
	Progress Progress       `json:"progress"`
	Payment  *model.Payment `json:"payment,omitempty"`
}

// UpdateOrder 单事务应用载荷携带的全部事务性变更，提交后追加审计。
// 收款是尽力而为副作用：失败只记录，不影响已提交的主变更。
func (e *Engine) UpdateOrder(ctx context.Context, userID uint, req UpdateOrderRequest) (*UpdateOrderResult, error) {
	var (
		result   UpdateOrderResult
		acciones []string
	)

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, req.OrderID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("orden_no_encontrada", "orden %d no existe", req.OrderID)
		}
		if err != nil {
			return err
		}

		if req.Edit != nil {
			if err := e.applyEdit(tx, &order, *req.Edit); err != nil {
				return err
			}
			acciones = append(acciones, "editar_lineas")
		}

		if req.AsignarTrabajador != nil {
			wid := *req.AsignarTrabajador
			var w model.Worker
			if err := tx.First(&w, wid).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errs.NotFound("trabajador_no_encontrado", "trabajador %d no existe", wid)
				}
				return err
			}
			if !w.Activo {
				return errs.NotFound("trabajador_inactivo", "trabajador %d esta inactivo", wid)
			}
			if err := tx.Model(&model.Order{}).Where("id = ?", order.ID).
				Update("worker_id", wid).Error; err != nil {
				return err
			}
			order.WorkerID = &wid
			if err := e.applyAssign(tx, &order, wid); err != nil {
				return err
			}
			acciones = append(acciones, "asignar_trabajador")
		}

		for _, wid := range req.AgregarApoyos {
			if err := e.addApoyo(tx, order.ID, wid); err != nil {
				return err
			}
		}
		for _, wid := range req.QuitarApoyos {
			if err := e.removeApoyo(tx, order.ID, wid); err != nil {
				return err
			}
		}
		if len(req.AgregarApoyos)+len(req.QuitarApoyos) > 0 {
			acciones = append(acciones, "editar_apoyos")
		}

		if req.NuevoEstado != nil {
			if err := e.applyTransition(tx, &order, *req.NuevoEstado, userID); err != nil {
				return err
			}
			acciones = append(acciones, fmt.Sprintf("transicion_%s", *req.NuevoEstado))
		}

		prog, err := progressTx(tx, order.ID)
		if err != nil {
			return err
		}
		result.Order = order
		result.Progress = prog
		return nil
	})
	if err != nil {
		return nil, wrapEngineErr(err)
	}

	if req.Pago != nil {
		if pago := e.quickPayment(ctx, req.OrderID, *req.Pago, userID); pago != nil {
			result.Payment = pago
			acciones = append(acciones, "registrar_pago")
			// 收款改了 pagado/estado_pago，回读保证返回体一致。
			if err := e.db.WithContext(ctx).First(&result.Order, req.OrderID).Error; err != nil {
				log.Printf("releer orden %d tras pago: %v", req.OrderID, err)
			}
		}
	}

	for _, accion := range acciones {
		e.rec.Record(ctx, audit.Entry{
			UserID:      userID,
			Accion:      accion,
			Descripcion: fmt.Sprintf("orden %s: %s", result.Order.Codigo, accion),
			Tabla:       "orders",
			OrderID:     result.Order.ID,
			Codigo:      result.Order.Codigo,
		})
	}
	return &result, nil
}

// GetOrder 读取工单及其行/任务/预约，只读。
func (e *Engine) GetOrder(ctx context.Context, orderID uint) (*CreateOrderResult, error) {
	db := e.db.WithContext(ctx)

	var order model.Order
	err := db.First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("orden_no_encontrada", "orden %d no existe", orderID)
	}
	if err != nil {
		return nil, wrapEngineErr(err)
	}

	out := &CreateOrderResult{Order: order}
	if err := db.Where("order_id = ?", orderID).Find(&out.Lines).Error; err != nil {
		return nil, wrapEngineErr(err)
	}
	if err := db.Where("order_id = ?", orderID).Find(&out.Tasks).Error; err != nil {
		return nil, wrapEngineErr(err)
	}
	if err := db.Where("order_id = ?", orderID).Find(&out.Reservations).Error; err != nil {
		return nil, wrapEngineErr(err)
	}
	return out, nil
}
