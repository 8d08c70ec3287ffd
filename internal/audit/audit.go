package audit

import (
	"context"
	"log"
	"strconv"

	"taller_orders/internal/model"

	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Recorder 成功提交后追加审计条目，并把工单事件写入 Redis Stream outbox
// （Relay 再异步转发 Kafka）。审计是日志性关注点：失败只记录，绝不让已提交的操作报错。
type Recorder struct {
	db     *gorm.DB
	rdb    *rd.Client
	stream string
}

// NewRecorder rdb 可为 nil（测试或未配置 Redis 时仅落库审计行）。
func NewRecorder(db *gorm.DB, rdb *rd.Client, stream string) *Recorder {
	return &Recorder{db: db, rdb: rdb, stream: stream}
}

// Entry 一次有效变更对应一条审计：谁、做了什么、影响哪张表。
type Entry struct {
	UserID      uint
	Accion      string
	Descripcion string
	Tabla       string
	OrderID     uint
	Codigo      string
}

// Record 幂等语义由调用方保证：每次有效变更恰好调用一次，且在事务提交之后。
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil {
		return
	}
	if err := r.db.WithContext(ctx).Create(&model.AuditLog{
		UserID:      e.UserID,
		Accion:      e.Accion,
		Descripcion: e.Descripcion,
		Tabla:       e.Tabla,
	}).Error; err != nil {
		log.Printf("audit append accion=%s orden=%s: %v", e.Accion, e.Codigo, err)
	}

	if r.rdb == nil {
		return
	}
	err := r.rdb.XAdd(ctx, &rd.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"event_id": uuid.NewString(),
			"order_id": strconv.FormatUint(uint64(e.OrderID), 10),
			"codigo":   e.Codigo,
			"accion":   e.Accion,
			"user_id":  strconv.FormatUint(uint64(e.UserID), 10),
		},
	}).Err()
	if err != nil {
		log.Printf("audit outbox accion=%s orden=%s: %v", e.Accion, e.Codigo, err)
	}
}
