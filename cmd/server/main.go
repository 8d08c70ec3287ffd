package main

import (
	"context"
	"log"

	"taller_orders/internal/audit"
	"taller_orders/internal/config"
	"taller_orders/internal/model"
	"taller_orders/internal/orden"
	"taller_orders/internal/queue"
	"taller_orders/internal/router"
	"taller_orders/internal/stock"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// 1. 连接 SQLite，自动建表
	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	rdb := rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})

	// 审计事件链路：提交后入 Redis Stream，Relay 转 Kafka，Consumer 归档回库。
	producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relay := queue.NewRelay(rdb, producer, cfg.OrderEventStream, cfg.OrderEventGroup, cfg.OrderEventConsumer)
	go relay.Run(ctx)

	consumer := queue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, db)
	defer consumer.Close()
	go consumer.Run(ctx)

	recorder := audit.NewRecorder(db, rdb, cfg.OrderEventStream)
	engine := orden.NewEngine(db, stock.NewLedger(), recorder)

	r := gin.Default()
	router.Setup(r, db, rdb, engine, cfg)

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("http: %v", err)
	}
}
