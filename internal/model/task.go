package model

import (
	"time"

	"gorm.io/gorm"
)

// TaskEstado 任务状态，独立于工单状态推进。
type TaskEstado string

const (
	TareaPendiente  TaskEstado = "pendiente" // 尚无技师，等待指派
	TareaPorHacer   TaskEstado = "por_hacer"
	TareaEnProceso  TaskEstado = "en_proceso"
	TareaCompletada TaskEstado = "completada"
	TareaVerificada TaskEstado = "verificada"
)

// DefaultTaskMinutes 服务行无法推导预估时长时的兜底分钟数。
const DefaultTaskMinutes = 60

// Task 由服务行派生的机械作业任务，一条服务行最多一条任务。
type Task struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrderID     uint       `gorm:"not null;index" json:"order_id"`
	OrderLineID uint       `gorm:"not null;uniqueIndex" json:"order_line_id"`
	WorkerID    *uint      `gorm:"index" json:"id_trabajador"`
	Estado      TaskEstado `gorm:"size:16;not null;index" json:"estado"`

	DuracionEstimada int `gorm:"not null;default:0" json:"duracion_estimada"` // 分钟
	DuracionReal     int `gorm:"not null;default:0" json:"duracion_real"`     // 完成后回填
}

func (Task) TableName() string { return "tasks" }
