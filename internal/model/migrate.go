package model

import "gorm.io/gorm"

// AutoMigrate 建全部表，server 启动与测试共用。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Customer{},
		&Vehicle{},
		&Worker{},
		&Warehouse{},
		&Location{},
		&Product{},
		&Service{},
		&StockBucket{},
		&StockMovement{},
		&Order{},
		&OrderLine{},
		&OrderWorker{},
		&Task{},
		&Reservation{},
		&Payment{},
		&AuditLog{},
		&OrderEvent{},
	)
}
