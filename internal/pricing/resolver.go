package pricing

import (
	"taller_orders/internal/errs"
	"taller_orders/internal/model"

	"gorm.io/gorm"
)

// ResolvedItem 行项目解析结果的标签联合：恰好一边非空。
// 同一个 id 可能同时命中产品表和服务表，消歧策略（只在这里实现一次）：
// 1) 调用方声明的 tipo 优先；2) 否则取激活的服务；3) 否则取激活的产品；4) 否则拒绝该行。
type ResolvedItem struct {
	Producto *model.Product
	Servicio *model.Service
}

func (r ResolvedItem) EsServicio() bool { return r.Servicio != nil }

// itemResolver 批量预载候选产品/服务，逐行消歧。
type itemResolver struct {
	products map[uint]model.Product
	services map[uint]model.Service
}

// newItemResolver 一次 IN 查询拉出全部候选，避免逐行查表。
func newItemResolver(tx *gorm.DB, items []LineItem) (*itemResolver, error) {
	ids := make([]uint, 0, len(items))
	seen := make(map[uint]bool, len(items))
	for _, it := range items {
		if !seen[it.ItemID] {
			seen[it.ItemID] = true
			ids = append(ids, it.ItemID)
		}
	}

	r := &itemResolver{
		products: make(map[uint]model.Product, len(ids)),
		services: make(map[uint]model.Service, len(ids)),
	}
	if len(ids) == 0 {
		return r, nil
	}

	var prods []model.Product
	if err := tx.Where("id IN ?", ids).Find(&prods).Error; err != nil {
		return nil, err
	}
	for _, p := range prods {
		r.products[p.ID] = p
	}

	var svcs []model.Service
	if err := tx.Where("id IN ?", ids).Find(&svcs).Error; err != nil {
		return nil, err
	}
	for _, s := range svcs {
		r.services[s.ID] = s
	}
	return r, nil
}

// resolve 按消歧策略解析一条行。返回 *errs.Error 表示该行（进而整个操作）被拒。
func (r *itemResolver) resolve(idx int, it LineItem) (ResolvedItem, error) {
	p, hasP := r.products[it.ItemID]
	s, hasS := r.services[it.ItemID]

	switch it.Tipo {
	case model.LineaProducto:
		if !hasP || !p.Activo {
			return ResolvedItem{}, errs.NotFound("item_no_resuelto",
				"linea %d: producto %d inexistente o inactivo", idx, it.ItemID)
		}
		return ResolvedItem{Producto: &p}, nil
	case model.LineaServicio:
		if !hasS || !s.Activo {
			return ResolvedItem{}, errs.NotFound("item_no_resuelto",
				"linea %d: servicio %d inexistente o inactivo", idx, it.ItemID)
		}
		return ResolvedItem{Servicio: &s}, nil
	case "":
		// 未声明类型：先取激活服务，再取激活产品。
		if hasS && s.Activo {
			return ResolvedItem{Servicio: &s}, nil
		}
		if hasP && p.Activo {
			return ResolvedItem{Producto: &p}, nil
		}
		return ResolvedItem{}, errs.NotFound("item_no_resuelto",
			"linea %d: item %d no resuelve a producto ni servicio activo", idx, it.ItemID)
	default:
		return ResolvedItem{}, errs.Validation("tipo_invalido",
			"linea %d: tipo %q no reconocido", idx, it.Tipo)
	}
}
