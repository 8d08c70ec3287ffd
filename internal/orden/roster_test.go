package orden

import (
	"context"
	"testing"

	"taller_orders/internal/errs"
	"taller_orders/internal/model"
	"taller_orders/internal/pricing"
)

func TestApoyosAddRemoveIdempotent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	apoyo := model.Worker{Nombre: "Pedro Ruiz", Activo: true}
	mustCreate(t, f.db, &apoyo)

	res, err := f.engine.CreateOrder(ctx, 7, pricing.CreateOrderRequest{
		CustomerID: f.Customer.ID,
		VehicleID:  f.Vehicle.ID,
		Items: []pricing.LineItem{
			{ItemID: f.Service.ID, Cantidad: 1, PrecioCents: 18000},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	roster := func() int64 {
		var n int64
		f.db.Model(&model.OrderWorker{}).Where("order_id = ?", res.Order.ID).Count(&n)
		return n
	}

	// 重复添加是 no-op，不报错。
	for i := 0; i < 2; i++ {
		if _, err := f.engine.UpdateOrder(ctx, 7, UpdateOrderRequest{
			OrderID:       res.Order.ID,
			AgregarApoyos: []uint{apoyo.ID},
		}); err != nil {
			t.Fatalf("agregar apoyo (%d): %v", i, err)
		}
	}
	if n := roster(); n != 1 {
		t.Fatalf("apoyos tras doble alta: %d", n)
	}

	// 移除，y quitar de nuevo también es no-op.
	for i := 0; i < 2; i++ {
		if _, err := f.engine.UpdateOrder(ctx, 7, UpdateOrderRequest{
			OrderID:      res.Order.ID,
			QuitarApoyos: []uint{apoyo.ID},
		}); err != nil {
			t.Fatalf("quitar apoyo (%d): %v", i, err)
		}
	}
	if n := roster(); n != 0 {
		t.Fatalf("apoyos tras baja: %d", n)
	}
}

func TestApoyoRejectsUnknownOrInactiveWorker(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	inactivo := model.Worker{Nombre: "Ya no trabaja aqui", Activo: false}
	mustCreate(t, f.db, &inactivo)

	res, err := f.engine.CreateOrder(ctx, 7, pricing.CreateOrderRequest{
		CustomerID: f.Customer.ID,
		VehicleID:  f.Vehicle.ID,
		Items: []pricing.LineItem{
			{ItemID: f.Service.ID, Cantidad: 1, PrecioCents: 18000},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.engine.UpdateOrder(ctx, 7, UpdateOrderRequest{
		OrderID:       res.Order.ID,
		AgregarApoyos: []uint{9999},
	})
	if errs.HTTPStatus(err) != 404 {
		t.Fatalf("apoyo inexistente: %v", err)
	}

	_, err = f.engine.UpdateOrder(ctx, 7, UpdateOrderRequest{
		OrderID:       res.Order.ID,
		AgregarApoyos: []uint{inactivo.ID},
	})
	if errs.HTTPStatus(err) != 404 {
		t.Fatalf("apoyo inactivo: %v", err)
	}
}
