package stock

import (
	"errors"
	"fmt"

	"taller_orders/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrReservationNotFound = errors.New("reserva no encontrada")
	// ErrAlreadyConfirmed: CONFIRMED 的预约不可通过 Release 逆转。
	ErrAlreadyConfirmed = errors.New("reserva ya confirmada")
)

// Ledger 库存预约台账，作用于调用方的事务句柄。
// 自身不开事务：Reserve/Confirm/Release 的原子性由外层 db.Transaction 保证。
type Ledger struct{}

func NewLedger() *Ledger { return &Ledger{} }

// ReserveInput 预约一笔出库占用所需的全部上下文。
type ReserveInput struct {
	ProductID   uint
	WarehouseID uint
	LocationID  *uint
	Cantidad    int
	OrderID     uint
	OrderLineID uint
	Motivo      string
	Referencia  string
}

// locID 空库位以 0 占位，与 StockBucket 唯一索引保持一致。
func locID(p *uint) uint {
	if p == nil {
		return 0
	}
	return *p
}

// Available 查询桶可用量。桶不存在视为 0，可用于校验阶段。
func (l *Ledger) Available(tx *gorm.DB, productID, warehouseID uint, locationID *uint) (int64, error) {
	var b model.StockBucket
	err := tx.Where("product_id = ? AND warehouse_id = ? AND location_id = ?",
		productID, warehouseID, locID(locationID)).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return b.Available, nil
}

// Reserve 锁桶 -> 校验可用量 -> 扣减 -> 写 PENDING 预约 -> 记流水 -> 重推导商品总库存。
// 可用量不足返回 ErrInsufficientStock，且不产生任何写入（由外层事务回滚兜底）。
func (l *Ledger) Reserve(tx *gorm.DB, in ReserveInput) (uint, error) {
	if in.Cantidad <= 0 {
		return 0, fmt.Errorf("cantidad invalida: %d", in.Cantidad)
	}

	var bucket model.StockBucket
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND warehouse_id = ? AND location_id = ?",
			in.ProductID, in.WarehouseID, locID(in.LocationID)).
		First(&bucket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrInsufficientStock
	}
	if err != nil {
		return 0, err
	}
	if bucket.Available < int64(in.Cantidad) {
		return 0, ErrInsufficientStock
	}

	anterior := bucket.Available
	bucket.Available -= int64(in.Cantidad)
	if err := tx.Model(&model.StockBucket{}).Where("id = ?", bucket.ID).
		Update("available", bucket.Available).Error; err != nil {
		return 0, err
	}

	res := model.Reservation{
		OrderID:     in.OrderID,
		OrderLineID: in.OrderLineID,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		LocationID:  in.LocationID,
		Cantidad:    in.Cantidad,
		Estado:      model.ReservaPendiente,
	}
	if err := tx.Create(&res).Error; err != nil {
		return 0, err
	}

	if err := l.journal(tx, bucket, model.MovReserva, -int64(in.Cantidad), anterior, in.Motivo, in.Referencia); err != nil {
		return 0, err
	}
	if err := RecomputeProductStock(tx, in.ProductID); err != nil {
		return 0, err
	}
	return res.ID, nil
}

// Confirm PENDING -> CONFIRMED。已 CONFIRMED 幂等返回 nil。
// 不改动任何数量：扣减在 Reserve 时已发生，这里只把出库定稿到流水。
func (l *Ledger) Confirm(tx *gorm.DB, reservationID uint, motivo, referencia string) error {
	var res model.Reservation
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&res, reservationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrReservationNotFound
	}
	if err != nil {
		return err
	}
	switch res.Estado {
	case model.ReservaConfirmada:
		return nil
	case model.ReservaLiberada:
		return fmt.Errorf("reserva %d ya liberada, no se puede confirmar", reservationID)
	}

	if err := tx.Model(&model.Reservation{}).Where("id = ?", res.ID).
		Update("estado", model.ReservaConfirmada).Error; err != nil {
		return err
	}

	avail, err := l.Available(tx, res.ProductID, res.WarehouseID, res.LocationID)
	if err != nil {
		return err
	}
	bucket := model.StockBucket{ProductID: res.ProductID, WarehouseID: res.WarehouseID, LocationID: locID(res.LocationID)}
	if err := l.journal(tx, bucket, model.MovSalidaConfirmada, 0, avail, motivo, referencia); err != nil {
		return err
	}
	return RecomputeProductStock(tx, res.ProductID)
}

// Release PENDING -> RELEASED，并把占用量还回桶。
// 已 RELEASED 幂等返回 nil；已 CONFIRMED 返回 ErrAlreadyConfirmed。
func (l *Ledger) Release(tx *gorm.DB, reservationID uint, motivo, referencia string) error {
	var res model.Reservation
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&res, reservationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrReservationNotFound
	}
	if err != nil {
		return err
	}
	switch res.Estado {
	case model.ReservaLiberada:
		return nil
	case model.ReservaConfirmada:
		return ErrAlreadyConfirmed
	}

	var bucket model.StockBucket
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND warehouse_id = ? AND location_id = ?",
			res.ProductID, res.WarehouseID, locID(res.LocationID)).
		First(&bucket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 预约存在而桶被删的异常数据：重建桶再回补。
		bucket = model.StockBucket{ProductID: res.ProductID, WarehouseID: res.WarehouseID, LocationID: locID(res.LocationID)}
		if err := tx.Create(&bucket).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	anterior := bucket.Available
	bucket.Available += int64(res.Cantidad)
	if err := tx.Model(&model.StockBucket{}).Where("id = ?", bucket.ID).
		Update("available", bucket.Available).Error; err != nil {
		return err
	}
	if err := tx.Model(&model.Reservation{}).Where("id = ?", res.ID).
		Update("estado", model.ReservaLiberada).Error; err != nil {
		return err
	}
	if err := l.journal(tx, bucket, model.MovLiberacion, int64(res.Cantidad), anterior, motivo, referencia); err != nil {
		return err
	}
	return RecomputeProductStock(tx, res.ProductID)
}

func (l *Ledger) journal(tx *gorm.DB, bucket model.StockBucket, tipo string, cantidad, anterior int64, motivo, referencia string) error {
	return tx.Create(&model.StockMovement{
		ProductID:     bucket.ProductID,
		WarehouseID:   bucket.WarehouseID,
		LocationID:    bucket.LocationID,
		Tipo:          tipo,
		Cantidad:      cantidad,
		StockAnterior: anterior,
		StockNuevo:    anterior + cantidad,
		Motivo:        motivo,
		ReferenciaID:  referencia,
	}).Error
}

// RecomputeProductStock 重新推导商品冗余库存字段：
// Stock = Σ(多仓桶可用量) + 旧版单桶余额。
// 引擎在手工调整 Product.Stock 后也会调用它，两条路径最终收敛到同一个值。
func RecomputeProductStock(tx *gorm.DB, productID uint) error {
	var sum int64
	if err := tx.Model(&model.StockBucket{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(available), 0)").Scan(&sum).Error; err != nil {
		return err
	}
	var p model.Product
	if err := tx.First(&p, productID).Error; err != nil {
		return err
	}
	return tx.Model(&model.Product{}).Where("id = ?", productID).
		Update("stock", sum+p.StockLegacy).Error
}
