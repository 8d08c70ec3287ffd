package pricing

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"taller_orders/internal/errs"
	"taller_orders/internal/model"
	"taller_orders/internal/stock"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type valFixture struct {
	db     *gorm.DB
	ledger *stock.Ledger

	customer  model.Customer
	vehicle   model.Vehicle
	warehouse model.Warehouse
	product   model.Product
	service   model.Service
}

func newValFixture(t *testing.T) *valFixture {
	t.Helper()
	f := &valFixture{db: testDB(t), ledger: stock.NewLedger()}

	seed := func(v any) {
		t.Helper()
		if err := f.db.Create(v).Error; err != nil {
			t.Fatalf("seed %T: %v", v, err)
		}
	}
	f.customer = model.Customer{Nombre: "Ana Lopez", Activo: true}
	seed(&f.customer)
	f.vehicle = model.Vehicle{CustomerID: f.customer.ID, Placa: "XYZ-987", Activo: true}
	seed(&f.vehicle)
	f.warehouse = model.Warehouse{Nombre: "Principal", Activo: true}
	seed(&f.warehouse)
	f.product = model.Product{Nombre: "Amortiguador", PrecioCents: 35000, Activo: true}
	seed(&f.product)
	seed(&model.StockBucket{ProductID: f.product.ID, WarehouseID: f.warehouse.ID, Available: 5})
	f.service = model.Service{
		Nombre: "Alineacion", PrecioCents: 12000,
		TiempoMinimo: 30, TiempoMaximo: 45, UnidadTiempo: model.UnidadMinutos, Activo: true,
	}
	seed(&f.service)
	return f
}

func (f *valFixture) req(items ...LineItem) CreateOrderRequest {
	return CreateOrderRequest{CustomerID: f.customer.ID, VehicleID: f.vehicle.ID, Items: items}
}

func errCode(err error) string {
	if e, ok := err.(*errs.Error); ok {
		return e.Code
	}
	return ""
}

func TestValidatePerLineRejections(t *testing.T) {
	f := newValFixture(t)
	now := time.Now()

	cases := []struct {
		name string
		item LineItem
		code string
	}{
		{"cantidad cero", LineItem{ItemID: f.service.ID, Cantidad: 0, PrecioCents: 12000}, "cantidad_invalida"},
		{"cantidad negativa", LineItem{ItemID: f.service.ID, Cantidad: -2, PrecioCents: 12000}, "cantidad_invalida"},
		{"descuento fuera de rango", LineItem{ItemID: f.service.ID, Cantidad: 1, PrecioCents: 12000, DescuentoPct: 101}, "descuento_invalido"},
		{"descuento negativo", LineItem{ItemID: f.service.ID, Cantidad: 1, PrecioCents: 12000, DescuentoPct: -1}, "descuento_invalido"},
		{"precio negativo", LineItem{ItemID: f.service.ID, Cantidad: 1, PrecioCents: -1}, "precio_invalido"},
		{"item desconocido", LineItem{ItemID: 9999, Cantidad: 1, PrecioCents: 100}, "item_no_resuelto"},
		{"tipo desconocido", LineItem{ItemID: f.service.ID, Tipo: "repuesto", Cantidad: 1, PrecioCents: 100}, "tipo_invalido"},
		{"servicio con servicio_ref", LineItem{ItemID: f.service.ID, Cantidad: 1, PrecioCents: 12000, ServicioRef: intPtr(0)}, "servicio_ref_invalido"},
		{"stock insuficiente", LineItem{ItemID: f.product.ID, Tipo: model.LineaProducto, Cantidad: 6, PrecioCents: 35000}, "stock_insuficiente"},
	}
	for _, c := range cases {
		_, err := Validate(f.db, f.ledger, f.req(c.item), now)
		if err == nil {
			t.Errorf("%s: aceptado", c.name)
			continue
		}
		if got := errCode(err); got != c.code {
			t.Errorf("%s: code %q, esperaba %q (%v)", c.name, got, c.code, err)
		}
	}
}

func TestValidateActorChecks(t *testing.T) {
	f := newValFixture(t)
	now := time.Now()
	item := LineItem{ItemID: f.service.ID, Cantidad: 1, PrecioCents: 12000}

	otro := model.Customer{Nombre: "Otro Cliente", Activo: true}
	if err := f.db.Create(&otro).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	cases := []struct {
		name string
		req  CreateOrderRequest
		code string
	}{
		{"cliente inexistente", CreateOrderRequest{CustomerID: 9999, VehicleID: f.vehicle.ID, Items: []LineItem{item}}, "cliente_no_encontrado"},
		{"vehiculo inexistente", CreateOrderRequest{CustomerID: f.customer.ID, VehicleID: 9999, Items: []LineItem{item}}, "vehiculo_no_encontrado"},
		{"vehiculo de otro cliente", CreateOrderRequest{CustomerID: otro.ID, VehicleID: f.vehicle.ID, Items: []LineItem{item}}, "vehiculo_ajeno"},
		{"trabajador inexistente", CreateOrderRequest{CustomerID: f.customer.ID, VehicleID: f.vehicle.ID, WorkerID: uintPtr(9999), Items: []LineItem{item}}, "trabajador_no_encontrado"},
		{"prioridad invalida", CreateOrderRequest{CustomerID: f.customer.ID, VehicleID: f.vehicle.ID, Prioridad: "urgentisima", Items: []LineItem{item}}, "prioridad_invalida"},
		{"modo invalido", CreateOrderRequest{CustomerID: f.customer.ID, VehicleID: f.vehicle.ID, Modo: "mixto", Items: []LineItem{item}}, "modo_invalido"},
	}
	for _, c := range cases {
		_, err := Validate(f.db, f.ledger, c.req, now)
		if got := errCode(err); got != c.code {
			t.Errorf("%s: code %q, esperaba %q (%v)", c.name, got, c.code, err)
		}
	}
}

func TestValidateRequiresActiveWarehouse(t *testing.T) {
	f := newValFixture(t)
	if err := f.db.Model(&model.Warehouse{}).Where("id = ?", f.warehouse.ID).
		Update("activo", false).Error; err != nil {
		t.Fatalf("desactivar almacen: %v", err)
	}

	// Fatal incluso para una orden sin productos.
	_, err := Validate(f.db, f.ledger, f.req(
		LineItem{ItemID: f.service.ID, Cantidad: 1, PrecioCents: 12000},
	), time.Now())
	if got := errCode(err); got != "sin_almacen_activo" {
		t.Fatalf("code %q (%v)", got, err)
	}
	if err != nil && !strings.Contains(err.Error(), "no active warehouse configured") {
		t.Fatalf("mensaje: %v", err)
	}
}

// Un mismo id presente en productos y servicios: gana el tipo declarado,
// sin declaracion gana el servicio activo, y si esta inactivo cae al producto.
func TestResolveDisambiguation(t *testing.T) {
	f := newValFixture(t)
	now := time.Now()

	// product.ID == service.ID == 1 en una base recien sembrada.
	if f.product.ID != f.service.ID {
		t.Fatalf("fixture: ids no colisionan (%d vs %d)", f.product.ID, f.service.ID)
	}
	id := f.product.ID

	v, err := Validate(f.db, f.ledger, f.req(LineItem{ItemID: id, Cantidad: 1, PrecioCents: 12000}), now)
	if err != nil {
		t.Fatalf("sin tipo: %v", err)
	}
	if v.Lines[0].Tipo != model.LineaServicio {
		t.Fatalf("sin tipo resolvio a %s", v.Lines[0].Tipo)
	}

	v, err = Validate(f.db, f.ledger, f.req(LineItem{ItemID: id, Tipo: model.LineaProducto, Cantidad: 1, PrecioCents: 35000}), now)
	if err != nil {
		t.Fatalf("tipo producto: %v", err)
	}
	if v.Lines[0].Tipo != model.LineaProducto {
		t.Fatalf("tipo declarado ignorado: %s", v.Lines[0].Tipo)
	}

	if err := f.db.Model(&model.Service{}).Where("id = ?", id).Update("activo", false).Error; err != nil {
		t.Fatalf("desactivar servicio: %v", err)
	}
	v, err = Validate(f.db, f.ledger, f.req(LineItem{ItemID: id, Cantidad: 1, PrecioCents: 35000}), now)
	if err != nil {
		t.Fatalf("fallback a producto: %v", err)
	}
	if v.Lines[0].Tipo != model.LineaProducto {
		t.Fatalf("fallback resolvio a %s", v.Lines[0].Tipo)
	}

	// Tipo declarado apuntando al lado inactivo: rechazo, sin fallback.
	_, err = Validate(f.db, f.ledger, f.req(LineItem{ItemID: id, Tipo: model.LineaServicio, Cantidad: 1, PrecioCents: 12000}), now)
	if got := errCode(err); got != "item_no_resuelto" {
		t.Fatalf("code %q (%v)", got, err)
	}
}

func TestValidateAggregatesDurationAcrossUnits(t *testing.T) {
	f := newValFixture(t)
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	rapido := model.Service{
		Nombre: "Diagnostico", PrecioCents: 8000,
		TiempoMinimo: 1, TiempoMaximo: 2, UnidadTiempo: model.UnidadHoras, Activo: true,
	}
	if err := f.db.Create(&rapido).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	// 30-45 min (x2) + 60-120 min (x1) = 120..210 minutos.
	v, err := Validate(f.db, f.ledger, f.req(
		LineItem{ItemID: f.service.ID, Cantidad: 2, PrecioCents: 12000},
		LineItem{ItemID: rapido.ID, Tipo: model.LineaServicio, Cantidad: 1, PrecioCents: 8000},
	), now)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if v.MinutosMin != 120 || v.MinutosMax != 210 {
		t.Fatalf("duracion: %d..%d", v.MinutosMin, v.MinutosMax)
	}
	want := now.Add(210 * time.Minute)
	if !v.FechaEstimadaFin.Equal(want) {
		t.Fatalf("fecha estimada: %v, esperaba %v", v.FechaEstimadaFin, want)
	}

	// Con fecha explicita no se recalcula.
	explicita := now.Add(48 * time.Hour)
	req := f.req(LineItem{ItemID: f.service.ID, Cantidad: 1, PrecioCents: 12000})
	req.FechaEstimadaFin = &explicita
	v, err = Validate(f.db, f.ledger, req, now)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !v.FechaEstimadaFin.Equal(explicita) {
		t.Fatalf("fecha explicita pisada: %v", v.FechaEstimadaFin)
	}
}

func TestValidateServicioRefConstraints(t *testing.T) {
	f := newValFixture(t)
	now := time.Now()
	svc := LineItem{ItemID: f.service.ID, Cantidad: 1, PrecioCents: 12000}
	prod := func(ref int) LineItem {
		return LineItem{ItemID: f.product.ID, Tipo: model.LineaProducto, Cantidad: 1, PrecioCents: 35000, ServicioRef: intPtr(ref)}
	}

	// Referencia valida.
	v, err := Validate(f.db, f.ledger, f.req(svc, prod(0)), now)
	if err != nil {
		t.Fatalf("ref valida: %v", err)
	}
	if v.Lines[1].ServicioRef == nil || *v.Lines[1].ServicioRef != 0 {
		t.Fatalf("ref no conservada: %+v", v.Lines[1])
	}

	if _, err := Validate(f.db, f.ledger, f.req(svc, prod(5)), now); errCode(err) != "servicio_ref_invalido" {
		t.Fatalf("ref fuera de rango: %v", err)
	}
	if _, err := Validate(f.db, f.ledger, f.req(svc, prod(1)), now); errCode(err) != "servicio_ref_invalido" {
		t.Fatalf("auto-referencia: %v", err)
	}
	// Dos productos compartiendo el mismo servicio: fatal, no se ignora.
	if _, err := Validate(f.db, f.ledger, f.req(svc, prod(0), prod(0)), now); errCode(err) != "servicio_ref_duplicado" {
		t.Fatalf("ref duplicada: %v", err)
	}
	// Referencia apuntando a otra linea de producto.
	otroProd := LineItem{ItemID: f.product.ID, Tipo: model.LineaProducto, Cantidad: 1, PrecioCents: 35000}
	if _, err := Validate(f.db, f.ledger, f.req(otroProd, prod(0)), now); errCode(err) != "servicio_ref_invalido" {
		t.Fatalf("ref a producto: %v", err)
	}
}

func TestLineTotalAndTaxRounding(t *testing.T) {
	cases := []struct {
		cantidad  int
		precio    int64
		descuento int
		want      int64
	}{
		{1, 18000, 0, 18000},
		{2, 5000, 10, 9000},
		{3, 333, 0, 999},
		{1, 999, 33, 669},  // 999*0.67 = 669.33 -> 669
		{1, 1001, 25, 751}, // 1001*0.75 = 750.75 -> 751
		{4, 2500, 100, 0},
	}
	for _, c := range cases {
		if got := lineTotal(c.cantidad, c.precio, c.descuento); got != c.want {
			t.Errorf("lineTotal(%d, %d, %d) = %d, esperaba %d",
				c.cantidad, c.precio, c.descuento, got, c.want)
		}
	}

	taxCases := []struct {
		subtotal, want int64
	}{
		{0, 0},
		{27000, 4860},
		{100, 18},
		{99, 18},  // 17.82 -> 18
		{97, 17},  // 17.46 -> 17
		{21240, 3823}, // 3823.2 -> 3823
	}
	for _, c := range taxCases {
		if got := TaxFor(c.subtotal); got != c.want {
			t.Errorf("TaxFor(%d) = %d, esperaba %d", c.subtotal, got, c.want)
		}
	}
}

func uintPtr(v uint) *uint { return &v }
func intPtr(v int) *int    { return &v }
