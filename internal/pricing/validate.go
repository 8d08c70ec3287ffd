package pricing

import (
	"errors"
	"math"
	"time"

	"taller_orders/internal/errs"
	"taller_orders/internal/model"
	"taller_orders/internal/stock"

	"gorm.io/gorm"
)

// Validate 解析并定价一笔创建/编辑请求。全部检查通过才返回 ValidatedOrder；
// 任何一条失败即整单拒绝，不产生部分效果（本函数只读）。
// 必须在引擎的事务句柄上调用，库存校验才与后续 Reserve 看到同一快照。
func Validate(tx *gorm.DB, ledger *stock.Ledger, req CreateOrderRequest, now time.Time) (*ValidatedOrder, error) {
	// 1. 客户存在且激活；车辆存在且属于该客户。
	var cust model.Customer
	if err := tx.First(&cust, req.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("cliente_no_encontrado", "cliente %d no existe", req.CustomerID)
		}
		return nil, err
	}
	if !cust.Activo {
		return nil, errs.NotFound("cliente_inactivo", "cliente %d esta inactivo", req.CustomerID)
	}

	var veh model.Vehicle
	if err := tx.First(&veh, req.VehicleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("vehiculo_no_encontrado", "vehiculo %d no existe", req.VehicleID)
		}
		return nil, err
	}
	if veh.CustomerID != req.CustomerID {
		return nil, errs.Validation("vehiculo_ajeno",
			"vehiculo %d no pertenece al cliente %d", req.VehicleID, req.CustomerID)
	}

	// 2. 负责技师（如给出）必须存在且激活。
	if req.WorkerID != nil {
		var w model.Worker
		if err := tx.First(&w, *req.WorkerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errs.NotFound("trabajador_no_encontrado", "trabajador %d no existe", *req.WorkerID)
			}
			return nil, err
		}
		if !w.Activo {
			return nil, errs.NotFound("trabajador_inactivo", "trabajador %d esta inactivo", *req.WorkerID)
		}
	}

	// 3. 默认激活仓库。缺失是整单致命错误。
	var defWh model.Warehouse
	if err := tx.Where("activo = ?", true).Order("id").First(&defWh).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("sin_almacen_activo", "no active warehouse configured")
		}
		return nil, err
	}

	modo := req.Modo
	if modo == "" {
		modo = model.ModoServiciosYProductos
	}
	if modo != model.ModoSoloServicios && modo != model.ModoServiciosYProductos {
		return nil, errs.Validation("modo_invalido", "modo %q no reconocido", req.Modo)
	}

	prioridad := req.Prioridad
	if prioridad == "" {
		prioridad = "media"
	}
	switch prioridad {
	case "baja", "media", "alta":
	default:
		return nil, errs.Validation("prioridad_invalida", "prioridad %q no reconocida", req.Prioridad)
	}

	// 4. 批量解析候选产品/服务。
	resolver, err := newItemResolver(tx, req.Items)
	if err != nil {
		return nil, err
	}

	out := &ValidatedOrder{
		CustomerID:         req.CustomerID,
		VehicleID:          req.VehicleID,
		WorkerID:           req.WorkerID,
		Prioridad:          prioridad,
		Modo:               modo,
		Notas:              req.Notas,
		DefaultWarehouseID: defWh.ID,
	}

	// servicio_ref 基数约束：每条服务行最多被一条产品行引用。
	refUsed := make(map[int]int) // ref idx -> 首个引用它的行下标

	for i, it := range req.Items {
		if it.Cantidad <= 0 {
			return nil, errs.Validation("cantidad_invalida",
				"linea %d: cantidad debe ser entero positivo, recibido %d", i, it.Cantidad)
		}
		if it.DescuentoPct < 0 || it.DescuentoPct > 100 {
			return nil, errs.Validation("descuento_invalido",
				"linea %d: descuento %d fuera de [0,100]", i, it.DescuentoPct)
		}
		if it.PrecioCents < 0 {
			return nil, errs.Validation("precio_invalido",
				"linea %d: precio no puede ser negativo", i)
		}

		resolved, err := resolver.resolve(i, it)
		if err != nil {
			return nil, err
		}

		line := ValidatedLine{
			Cantidad:     it.Cantidad,
			PrecioCents:  it.PrecioCents,
			DescuentoPct: it.DescuentoPct,
			TotalCents:   lineTotal(it.Cantidad, it.PrecioCents, it.DescuentoPct),
		}

		if resolved.EsServicio() {
			if it.ServicioRef != nil {
				return nil, errs.Validation("servicio_ref_invalido",
					"linea %d: solo lineas de producto pueden llevar servicio_ref", i)
			}
			svc := resolved.Servicio
			line.Tipo = model.LineaServicio
			line.ServiceID = &svc.ID

			factor := model.MinutesPerUnit(svc.UnidadTiempo)
			line.MinutosMin = svc.TiempoMinimo * factor * it.Cantidad
			line.MinutosMax = svc.TiempoMaximo * factor * it.Cantidad
			out.MinutosMin += line.MinutosMin
			out.MinutosMax += line.MinutosMax
		} else {
			if modo == model.ModoSoloServicios {
				return nil, errs.Business("producto_no_permitido",
					"linea %d: modo solo_servicios no admite lineas de producto", i)
			}
			prod := resolved.Producto
			line.Tipo = model.LineaProducto
			line.ProductID = &prod.ID

			whID := defWh.ID
			if it.WarehouseID != nil {
				var wh model.Warehouse
				if err := tx.First(&wh, *it.WarehouseID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return nil, errs.NotFound("almacen_no_encontrado",
							"linea %d: almacen %d no existe", i, *it.WarehouseID)
					}
					return nil, err
				}
				if !wh.Activo {
					return nil, errs.NotFound("almacen_inactivo",
						"linea %d: almacen %d esta inactivo", i, *it.WarehouseID)
				}
				whID = wh.ID
			}
			line.WarehouseID = &whID

			if it.UbicacionID != nil {
				var loc model.Location
				if err := tx.First(&loc, *it.UbicacionID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return nil, errs.NotFound("ubicacion_no_encontrada",
							"linea %d: ubicacion %d no existe", i, *it.UbicacionID)
					}
					return nil, err
				}
				if loc.WarehouseID != whID {
					return nil, errs.Validation("ubicacion_ajena",
						"linea %d: ubicacion %d no pertenece al almacen %d", i, *it.UbicacionID, whID)
				}
				line.LocationID = it.UbicacionID
			}

			avail, err := ledger.Available(tx, prod.ID, whID, line.LocationID)
			if err != nil {
				return nil, err
			}
			if avail < int64(it.Cantidad) {
				return nil, errs.Business("stock_insuficiente",
					"linea %d: producto %d requiere %d, disponible %d", i, prod.ID, it.Cantidad, avail)
			}

			if it.ServicioRef != nil {
				ref := *it.ServicioRef
				if ref < 0 || ref >= len(req.Items) || ref == i {
					return nil, errs.Validation("servicio_ref_invalido",
						"linea %d: servicio_ref %d fuera de rango", i, ref)
				}
				if prev, dup := refUsed[ref]; dup {
					// 第一处违反即整单致命，不静默忽略。
					return nil, errs.Business("servicio_ref_duplicado",
						"lineas %d y %d referencian la misma linea de servicio %d", prev, i, ref)
				}
				refUsed[ref] = i
				line.ServicioRef = it.ServicioRef
			}
		}

		out.SubtotalCents += line.TotalCents
		out.Lines = append(out.Lines, line)
	}

	// servicio_ref 必须落在服务行上（此时行类型已全部解析完）。
	for ref, from := range refUsed {
		if out.Lines[ref].Tipo != model.LineaServicio {
			return nil, errs.Validation("servicio_ref_invalido",
				"linea %d: servicio_ref %d no apunta a una linea de servicio", from, ref)
		}
	}

	out.TaxCents = TaxFor(out.SubtotalCents)
	out.TotalCents = out.SubtotalCents + out.TaxCents

	if req.FechaEstimadaFin != nil {
		out.FechaEstimadaFin = *req.FechaEstimadaFin
	} else {
		out.FechaEstimadaFin = now.Add(time.Duration(out.MinutosMax) * time.Minute)
	}
	return out, nil
}

// lineTotal = cantidad × precio × (1 − descuento/100)，四舍五入到分。
func lineTotal(cantidad int, precioCents int64, descuentoPct int) int64 {
	bruto := float64(cantidad) * float64(precioCents)
	return int64(math.Round(bruto * float64(100-descuentoPct) / 100))
}

// TaxFor 固定税率 18%，四舍五入到分。
func TaxFor(subtotalCents int64) int64 {
	return int64(math.Round(float64(subtotalCents) * float64(model.TaxRatePct) / 100))
}
