package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 聚合运行时配置，尽量通过环境变量注入，避免硬编码。
type AppConfig struct {
	HTTPAddr string
	DBPath   string

	RedisAddr string
	RedisDB   int

	// Kafka 集群地址（逗号分隔）、Topic、消费者组
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Redis Stream outbox（提交后审计事件原子入流，Relay 异步转 Kafka）
	OrderEventStream   string
	OrderEventGroup    string
	OrderEventConsumer string

	// 创建接口限流与幂等状态 TTL
	CreateRateLimit  int
	CreateRateWindow time.Duration
	RequestStateTTL  time.Duration
}

// Load 读取并校验配置，缺失时使用默认值。
func Load() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DBPath:             getEnv("DB_PATH", "taller_orders.db"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:            0,
		KafkaBrokers:       splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "taller-order-events"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "taller-order-event-archiver"),
		OrderEventStream:   getEnv("ORDER_EVENT_STREAM", "taller:order_events"),
		OrderEventGroup:    getEnv("ORDER_EVENT_GROUP", "taller-relay-group"),
		OrderEventConsumer: getEnv("ORDER_EVENT_CONSUMER", "taller-relay-1"),
		CreateRateLimit:    100,
		CreateRateWindow:   time.Second,
		RequestStateTTL:    24 * time.Hour,
	}

	redisDB, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	rateLimit, err := getEnvInt("CREATE_RATE_LIMIT", cfg.CreateRateLimit)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid CREATE_RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("CREATE_RATE_LIMIT must be > 0")
	}
	cfg.CreateRateLimit = rateLimit

	rateWindowSec, err := getEnvInt("CREATE_RATE_WINDOW_SEC", int(cfg.CreateRateWindow.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid CREATE_RATE_WINDOW_SEC: %w", err)
	}
	if rateWindowSec <= 0 {
		return AppConfig{}, fmt.Errorf("CREATE_RATE_WINDOW_SEC must be > 0")
	}
	cfg.CreateRateWindow = time.Duration(rateWindowSec) * time.Second

	stateTTLHour, err := getEnvInt("REQUEST_STATE_TTL_HOUR", int(cfg.RequestStateTTL.Hours()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid REQUEST_STATE_TTL_HOUR: %w", err)
	}
	if stateTTLHour <= 0 {
		return AppConfig{}, fmt.Errorf("REQUEST_STATE_TTL_HOUR must be > 0")
	}
	cfg.RequestStateTTL = time.Duration(stateTTLHour) * time.Hour

	if len(cfg.KafkaBrokers) == 0 {
		return AppConfig{}, fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if cfg.KafkaTopic == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_TOPIC must not be empty")
	}
	if cfg.KafkaGroupID == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_GROUP_ID must not be empty")
	}
	if cfg.OrderEventStream == "" {
		return AppConfig{}, fmt.Errorf("ORDER_EVENT_STREAM must not be empty")
	}
	if cfg.OrderEventGroup == "" {
		return AppConfig{}, fmt.Errorf("ORDER_EVENT_GROUP must not be empty")
	}
	if cfg.OrderEventConsumer == "" {
		return AppConfig{}, fmt.Errorf("ORDER_EVENT_CONSUMER must not be empty")
	}

	return cfg, nil
}

// getEnv 读取字符串环境变量，若为空则返回默认值。
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt 读取整数环境变量，若为空则返回默认值。
func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// splitCSV 将逗号分隔字符串解析为字符串切片。
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
