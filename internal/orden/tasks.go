package orden

import (
	"log"

	"taller_orders/internal/model"
	"taller_orders/internal/pricing"

	"gorm.io/gorm"
)

// generateTasks 为每条服务行派生恰好一条任务。
// 创建时已有负责技师 -> por_hacer，否则 pendiente；预估时长取该行聚合最大分钟（兜底 60）。
// 任务生成是 fire-and-log 副作用：失败只记录，不中止父操作。
func (e *Engine) generateTasks(tx *gorm.DB, order *model.Order, lines []model.OrderLine, v *pricing.ValidatedOrder) []model.Task {
	var tasks []model.Task
	for i, vl := range v.Lines {
		if vl.Tipo != model.LineaServicio {
			continue
		}
		estado := model.TareaPendiente
		if order.WorkerID != nil {
			estado = model.TareaPorHacer
		}
		minutos := vl.MinutosMax
		if minutos <= 0 {
			minutos = model.DefaultTaskMinutes
		}
		t := model.Task{
			OrderID:          order.ID,
			OrderLineID:      lines[i].ID,
			WorkerID:         order.WorkerID,
			Estado:           estado,
			DuracionEstimada: minutos,
		}
		if err := tx.Create(&t).Error; err != nil {
			log.Printf("tarea para linea %d de orden %s: %v", lines[i].ID, order.Codigo, err)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// applyAssign 指派负责技师的追溯效果：
// a) 给名下无技师的任务补技师；b) pendiente 任务提升为 por_hacer；
// c) 给尚无任务的服务行补建任务。
func (e *Engine) applyAssign(tx *gorm.DB, order *model.Order, workerID uint) error {
	if err := tx.Model(&model.Task{}).
		Where("order_id = ? AND worker_id IS NULL", order.ID).
		Update("worker_id", workerID).Error; err != nil {
		return err
	}
	if err := tx.Model(&model.Task{}).
		Where("order_id = ? AND estado = ?", order.ID, model.TareaPendiente).
		Update("estado", model.TareaPorHacer).Error; err != nil {
		return err
	}

	// 补建缺失任务（历史数据或此前建任务失败被吞的行）。
	var uncovered []model.OrderLine
	err := tx.Where("order_id = ? AND tipo = ?", order.ID, model.LineaServicio).
		Where("id NOT IN (?)", tx.Model(&model.Task{}).Select("order_line_id").Where("order_id = ?", order.ID)).
		Find(&uncovered).Error
	if err != nil {
		return err
	}
	for _, line := range uncovered {
		minutos := line.MinutosMax
		if minutos <= 0 {
			minutos = model.DefaultTaskMinutes
		}
		wid := workerID
		t := model.Task{
			OrderID:          order.ID,
			OrderLineID:      line.ID,
			WorkerID:         &wid,
			Estado:           model.TareaPorHacer,
			DuracionEstimada: minutos,
		}
		if err := tx.Create(&t).Error; err != nil {
			log.Printf("tarea retroactiva para linea %d de orden %s: %v", line.ID, order.Codigo, err)
		}
	}
	return nil
}

// promoteTasksPorHacer 工单进入 por_hacer 时，把名下 pendiente 任务一并提升。
func promoteTasksPorHacer(tx *gorm.DB, orderID uint) error {
	return tx.Model(&model.Task{}).
		Where("order_id = ? AND estado = ?", orderID, model.TareaPendiente).
		Update("estado", model.TareaPorHacer).Error
}
