package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Error 核心操作的拒绝结果：携带机器码与 HTTP 风格分类，
// 由外层传输层直接映射，核心不依赖 gin。
type Error struct {
	Status int    // 400 校验/业务规则, 404 引用缺失, 409 冲突, 500 非预期
	Code   string // 稳定机器码，前端按码映射提示
	Msg    string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Msg) }

// Validation 载荷形状/取值非法（400）。
func Validation(code, format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Business 业务规则拒绝（400）：非法转移、编辑窗口外、库存不足等。
func Business(code, format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Msg: fmt.Sprintf(format, args...)}
}

// NotFound 引用的实体缺失或未激活（404）。
func NotFound(code, format string, args ...any) *Error {
	return &Error{Status: http.StatusNotFound, Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Conflict 并发冲突在重试耗尽后的终态（409）。
func Conflict(code, format string, args ...any) *Error {
	return &Error{Status: http.StatusConflict, Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Internal 非预期错误（500），包装底层 error 信息。
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "internal", Msg: err.Error()}
}

// HTTPStatus 提取错误的 HTTP 分类，非 *Error 一律按 500。
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}
