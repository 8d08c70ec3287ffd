package orden

import (
	"taller_orders/internal/errs"
	"taller_orders/internal/model"
)

// validNext 工单状态转移表。不在表内的一律拒绝。
// pendiente/asignado 只是"是否带负责技师"的两个起点，后续转移等价。
var validNext = map[model.OrderEstado]map[model.OrderEstado]bool{
	model.EstadoPendiente:  {model.EstadoPorHacer: true},
	model.EstadoAsignado:   {model.EstadoPorHacer: true},
	model.EstadoPorHacer:   {model.EstadoEnProceso: true, model.EstadoPausado: true},
	model.EstadoEnProceso:  {model.EstadoPausado: true, model.EstadoCompletado: true},
	model.EstadoPausado:    {model.EstadoEnProceso: true, model.EstadoCompletado: true},
	model.EstadoCompletado: {model.EstadoEntregado: true},
	model.EstadoEntregado:  {},
}

// CanTransition 查表判定 from -> to 是否合法。
func CanTransition(from, to model.OrderEstado) bool {
	return validNext[from][to]
}

// IsEstado 校验字符串是否为状态图中的节点。
func IsEstado(s model.OrderEstado) bool {
	_, ok := validNext[s]
	return ok
}

// transitionError 拒绝转移时的描述性错误，点名源状态与目标状态。
func transitionError(from, to model.OrderEstado) error {
	return errs.Business("transicion_invalida",
		"transicion de %q a %q no permitida", from, to)
}
