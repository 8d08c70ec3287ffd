package orden

import (
	"context"
	"log"

	"taller_orders/internal/errs"
	"taller_orders/internal/model"

	"gorm.io/gorm"
)

// PagoRequest 轻量收款，随时可附加，不作为任何状态转移的门禁。
type PagoRequest struct {
	MontoCents int64  `json:"monto_cents"`
	Metodo     string `json:"metodo"`
}

// registerPayment 记收款并重推导 estado_pago：
// pagado=0 -> pendiente；0<pagado<total -> parcial；pagado>=total -> pagado。
func registerPayment(tx *gorm.DB, order *model.Order, req PagoRequest, userID uint) (*model.Payment, error) {
	if req.MontoCents <= 0 {
		return nil, errs.Validation("monto_invalido", "monto de pago debe ser positivo")
	}

	pago := model.Payment{
		OrderID:       order.ID,
		MontoCents:    req.MontoCents,
		Metodo:        req.Metodo,
		RegistradoPor: userID,
	}
	if err := tx.Create(&pago).Error; err != nil {
		return nil, err
	}

	pagado := order.PagadoCents + req.MontoCents
	if err := tx.Model(&model.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
		"pagado_cents": pagado,
		"estado_pago":  estadoPago(pagado, order.TotalCents),
	}).Error; err != nil {
		return nil, err
	}
	if err := tx.First(order, order.ID).Error; err != nil {
		return nil, err
	}
	return &pago, nil
}

func estadoPago(pagadoCents, totalCents int64) string {
	switch {
	case pagadoCents <= 0:
		return model.PagoPendiente
	case pagadoCents < totalCents:
		return model.PagoParcial
	default:
		return model.PagoPagado
	}
}

// quickPayment 尽力而为的收款登记：自己开事务，失败只记录，绝不让父操作回滚。
func (e *Engine) quickPayment(ctx context.Context, orderID uint, req PagoRequest, userID uint) *model.Payment {
	var pago *model.Payment
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}
		p, err := registerPayment(tx, &order, req, userID)
		if err != nil {
			return err
		}
		pago = p
		return nil
	})
	if err != nil {
		log.Printf("pago rapido orden %d: %v", orderID, err)
		return nil
	}
	return pago
}
