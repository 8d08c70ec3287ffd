package redis

import "fmt"

// RequestStatusKey 存储 request_id 的建单状态（pending/success/failed）。
func RequestStatusKey(requestID string) string {
	return fmt.Sprintf("taller:orden:request:status:%s", requestID)
}

// RequestClaimKey 标记某个 request_id 已被某次创建占用（幂等去重）。
func RequestClaimKey(requestID string) string {
	return fmt.Sprintf("taller:orden:request:claim:%s", requestID)
}

// RateLimitUserKey 创建接口按操作者限流的键名。
func RateLimitUserKey(userID uint) string {
	return fmt.Sprintf("rate_limit:taller:user:%d", userID)
}

// RateLimitIPKey 解析不到操作者时按来源 IP 限流的降级键名。
func RateLimitIPKey(ip string) string {
	return fmt.Sprintf("rate_limit:taller:ip:%s", ip)
}
