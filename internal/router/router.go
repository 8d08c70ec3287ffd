package router

import (
	"errors"
	"net/http"
	"strconv"

	"taller_orders/internal/config"
	"taller_orders/internal/errs"
	"taller_orders/internal/middleware"
	"taller_orders/internal/model"
	"taller_orders/internal/orden"
	"taller_orders/internal/pricing"
	rediskey "taller_orders/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Setup 注册全部 HTTP 路由。认证在上层完成，这里只消费 X-User-ID。
func Setup(r *gin.Engine, db *gorm.DB, rdb *rd.Client, engine *orden.Engine, cfg config.AppConfig) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "pong"})
	})

	// Catalogo (solo lectura; el CRUD completo vive en el back office excluido)
	r.GET("/api/productos", listProducts(db))
	r.GET("/api/servicios", listServices(db))

	// Ordenes de trabajo
	ordenes := r.Group("/api/ordenes")
	if rdb != nil {
		ordenes.POST("", middleware.RedisRateLimit(rdb, cfg.CreateRateLimit, cfg.CreateRateWindow), createOrder(engine, rdb, cfg))
	} else {
		ordenes.POST("", createOrder(engine, rdb, cfg))
	}
	ordenes.PUT("/:id", updateOrder(engine))
	ordenes.GET("/:id", getOrder(engine))
	ordenes.GET("/:id/progreso", getProgress(engine))
}

// listProducts 查询商品列表。
func listProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var list []model.Product
		if err := db.Find(&list).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": list})
	}
}

// listServices 查询服务列表。
func listServices(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var list []model.Service
		if err := db.Find(&list).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": list})
	}
}

// createOrderBody 创建载荷外加客户端幂等键。
type createOrderBody struct {
	RequestID string `json:"request_id"`
	pricing.CreateOrderRequest
}

// createOrder 创建工单。request_id 缺省时服务端代生成（不去重）。
func createOrder(engine *orden.Engine, rdb *rd.Client, cfg config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := actingUser(c)
		if !ok {
			return
		}

		var body createOrderBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		// 幂等占用：同一 request_id 只建一次单，重复请求回放既有结果。
		token := uuid.NewString()
		if rdb != nil && body.RequestID != "" {
			claimed, err := rediskey.ClaimRequest(c.Request.Context(), rdb, body.RequestID, token, cfg.RequestStateTTL)
			if err == nil && !claimed {
				st, found, stErr := rediskey.GetRequestState(c.Request.Context(), rdb, body.RequestID)
				if stErr == nil && found {
					c.JSON(http.StatusOK, gin.H{"code": 0, "duplicate": true, "data": st})
					return
				}
				c.JSON(http.StatusConflict, gin.H{"code": 409, "msg": "request en proceso"})
				return
			}
			// Redis 出错时放行（降级策略），幂等保护退化为无。
		}

		result, err := engine.CreateOrder(c.Request.Context(), userID, body.CreateOrderRequest)
		if err != nil {
			if rdb != nil && body.RequestID != "" {
				_ = rediskey.ReleaseClaimIfMatch(c.Request.Context(), rdb, body.RequestID, token)
				_ = rediskey.PutRequestState(c.Request.Context(), rdb, body.RequestID,
					rediskey.RequestFailed, "", err.Error(), cfg.RequestStateTTL)
			}
			respondError(c, err)
			return
		}

		if rdb != nil && body.RequestID != "" {
			_ = rediskey.PutRequestState(c.Request.Context(), rdb, body.RequestID,
				rediskey.RequestSuccess, result.Order.Codigo, "", cfg.RequestStateTTL)
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": result})
	}
}

// updateOrder 伞形更新：编辑/指派/名册/转移/收款，按载荷携带的部分应用。
func updateOrder(engine *orden.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := actingUser(c)
		if !ok {
			return
		}
		orderID, ok := pathID(c)
		if !ok {
			return
		}

		var req orden.UpdateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		req.OrderID = orderID

		result, err := engine.UpdateOrder(c.Request.Context(), userID, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": result})
	}
}

func getOrder(engine *orden.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := pathID(c)
		if !ok {
			return
		}
		result, err := engine.GetOrder(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": result})
	}
}

func getProgress(engine *orden.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := pathID(c)
		if !ok {
			return
		}
		prog, err := engine.Progress(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": prog})
	}
}

// actingUser 提取已认证操作者 id（上游认证层注入 X-User-ID）。
func actingUser(c *gin.Context) (uint, bool) {
	h := c.GetHeader("X-User-ID")
	id, err := strconv.ParseUint(h, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "X-User-ID requerido"})
		return 0, false
	}
	return uint(id), true
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "id invalido"})
		return 0, false
	}
	return uint(id), true
}

// respondError 把核心的错误分类映射到 HTTP 状态码。
func respondError(c *gin.Context, err error) {
	status := errs.HTTPStatus(err)
	var e *errs.Error
	if errors.As(err, &e) {
		c.JSON(status, gin.H{"code": status, "error_code": e.Code, "msg": e.Msg})
		return
	}
	c.JSON(status, gin.H{"code": status, "msg": err.Error()})
}
