package orden

import (
	"errors"

	"taller_orders/internal/errs"
	"taller_orders/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// addApoyo 支援技师入册。重复添加吞掉唯一冲突（no-op），不让整个操作失败。
func (e *Engine) addApoyo(tx *gorm.DB, orderID, workerID uint) error {
	var w model.Worker
	if err := tx.First(&w, workerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("trabajador_no_encontrado", "trabajador %d no existe", workerID)
		}
		return err
	}
	if !w.Activo {
		return errs.NotFound("trabajador_inactivo", "trabajador %d esta inactivo", workerID)
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.OrderWorker{OrderID: orderID, WorkerID: workerID}).Error
}

// removeApoyo 移除支援技师；不存在则 no-op。
func (e *Engine) removeApoyo(tx *gorm.DB, orderID, workerID uint) error {
	return tx.Where("order_id = ? AND worker_id = ?", orderID, workerID).
		Delete(&model.OrderWorker{}).Error
}
