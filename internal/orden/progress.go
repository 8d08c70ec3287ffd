package orden

import (
	"context"
	"math"

	"taller_orders/internal/errs"
	"taller_orders/internal/model"

	"gorm.io/gorm"
)

// Progress 工单完成度，由名下任务状态只读推导。
type Progress struct {
	Total       int `json:"total"`
	Completadas int `json:"completadas"`
	Verificadas int `json:"verificadas"`
	Porcentaje  int `json:"porcentaje"`
}

// Progress 零任务时定义为全零/0%，而不是未定义或 NaN。
func (e *Engine) Progress(ctx context.Context, orderID uint) (Progress, error) {
	db := e.db.WithContext(ctx)

	var exists int64
	if err := db.Model(&model.Order{}).Where("id = ?", orderID).Count(&exists).Error; err != nil {
		return Progress{}, wrapEngineErr(err)
	}
	if exists == 0 {
		return Progress{}, errs.NotFound("orden_no_encontrada", "orden %d no existe", orderID)
	}

	var tasks []model.Task
	if err := db.Where("order_id = ?", orderID).Find(&tasks).Error; err != nil {
		return Progress{}, wrapEngineErr(err)
	}
	return progressFromTasks(tasks), nil
}

func progressFromTasks(tasks []model.Task) Progress {
	p := Progress{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Estado {
		case model.TareaCompletada:
			p.Completadas++
		case model.TareaVerificada:
			p.Verificadas++
		}
	}
	if p.Total == 0 {
		return p
	}
	p.Porcentaje = int(math.Round(100 * float64(p.Completadas+p.Verificadas) / float64(p.Total)))
	return p
}

// progressTx 事务内读进度，供 UpdateOrder 结果复用。
func progressTx(tx *gorm.DB, orderID uint) (Progress, error) {
	var tasks []model.Task
	if err := tx.Where("order_id = ?", orderID).Find(&tasks).Error; err != nil {
		return Progress{}, err
	}
	return progressFromTasks(tasks), nil
}
