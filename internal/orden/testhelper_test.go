package orden

import (
	"fmt"
	"testing"

	"taller_orders/internal/model"
	"taller_orders/internal/stock"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB 每个测试一个独立的内存 sqlite 库。
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

// fixture 常用种子数据：客户+车辆+技师+仓库+产品（含库存桶）+服务。
type fixture struct {
	db     *gorm.DB
	engine *Engine

	Customer  model.Customer
	Vehicle   model.Vehicle
	Worker    model.Worker
	Warehouse model.Warehouse
	Product   model.Product
	Service   model.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testDB(t)
	f := &fixture{db: db, engine: NewEngine(db, stock.NewLedger(), nil)}

	f.Customer = model.Customer{Nombre: "Maria Perez", Activo: true}
	mustCreate(t, db, &f.Customer)
	f.Vehicle = model.Vehicle{CustomerID: f.Customer.ID, Placa: "ABC-123", Marca: "Toyota", Modelo: "Hilux", Activo: true}
	mustCreate(t, db, &f.Vehicle)
	f.Worker = model.Worker{Nombre: "Luis Gomez", Activo: true}
	mustCreate(t, db, &f.Worker)
	f.Warehouse = model.Warehouse{Nombre: "Central", Activo: true}
	mustCreate(t, db, &f.Warehouse)

	f.Product = model.Product{Nombre: "Filtro de aceite", PrecioCents: 5000, Activo: true}
	mustCreate(t, db, &f.Product)
	mustCreate(t, db, &model.StockBucket{ProductID: f.Product.ID, WarehouseID: f.Warehouse.ID, Available: 10})
	if err := stock.RecomputeProductStock(db, f.Product.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	f.Service = model.Service{
		Nombre: "Cambio de aceite", PrecioCents: 18000,
		TiempoMinimo: 1, TiempoMaximo: 2, UnidadTiempo: model.UnidadHoras, Activo: true,
	}
	mustCreate(t, db, &f.Service)
	return f
}

func mustCreate(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("seed %T: %v", v, err)
	}
}

// addProduct 追加一个带库存桶的商品。
func (f *fixture) addProduct(t *testing.T, nombre string, precio int64, disponible int64) model.Product {
	t.Helper()
	p := model.Product{Nombre: nombre, PrecioCents: precio, Activo: true}
	mustCreate(t, f.db, &p)
	mustCreate(t, f.db, &model.StockBucket{ProductID: p.ID, WarehouseID: f.Warehouse.ID, Available: disponible})
	if err := stock.RecomputeProductStock(f.db, p.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	return p
}

func (f *fixture) bucketAvailable(t *testing.T, productID uint) int64 {
	t.Helper()
	var b model.StockBucket
	if err := f.db.Where("product_id = ? AND warehouse_id = ?", productID, f.Warehouse.ID).First(&b).Error; err != nil {
		t.Fatalf("bucket: %v", err)
	}
	return b.Available
}

func (f *fixture) reloadOrder(t *testing.T, id uint) model.Order {
	t.Helper()
	var o model.Order
	if err := f.db.First(&o, id).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	return o
}

func uintPtr(v uint) *uint { return &v }
func intPtr(v int) *int    { return &v }
