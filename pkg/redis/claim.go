package redis

import (
	"context"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// luaClaimRequest 通过 SETNX 锁保证"同一 request_id 只建一次单"。
const luaClaimRequest = `
local claimKey = KEYS[1]
local token = ARGV[1]
local ttlSec = tonumber(ARGV[2])

if redis.call('SETNX', claimKey, token) == 1 then
  redis.call('EXPIRE', claimKey, ttlSec)
  return 1
end
return 0
`

// ClaimRequest 幂等占用一个 request_id：首次占用返回 true，重复请求返回 false。
func ClaimRequest(ctx context.Context, rdb *rd.Client, requestID, token string, ttl time.Duration) (bool, error) {
	n, err := rdb.Eval(ctx, luaClaimRequest, []string{RequestClaimKey(requestID)},
		token, int64(ttl/time.Second)).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// luaReleaseClaimIfMatch 仅当锁值匹配 token 时才删除，避免误删新请求的占用。
const luaReleaseClaimIfMatch = `
local claimKey = KEYS[1]
local token = ARGV[1]
if redis.call('GET', claimKey) == token then
  return redis.call('DEL', claimKey)
end
return 0
`

// ReleaseClaimIfMatch 创建失败后安全释放占用，让客户端可以重试同一 request_id。
func ReleaseClaimIfMatch(ctx context.Context, rdb *rd.Client, requestID, token string) error {
	_, err := rdb.Eval(ctx, luaReleaseClaimIfMatch, []string{RequestClaimKey(requestID)}, token).Int()
	return err
}
