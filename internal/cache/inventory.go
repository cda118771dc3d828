package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	RequestKeyPrefix  = "request:%s"
	RequestListKey    = "requests:list"
	TokenBlacklistKey = "blacklist:%s"
)

const (
	RequestTTL     = 5 * time.Minute
	RequestListTTL = 2 * time.Minute
)

func RequestKey(id string) string {
	return fmt.Sprintf(RequestKeyPrefix, id)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(TokenBlacklistKey, jti)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateRequest(ctx context.Context, id string) {
	Invalidate(ctx, RequestKey(id))
	Invalidate(ctx, RequestListKey)
}

func InvalidateRequestList(ctx context.Context) {
	Invalidate(ctx, RequestListKey)
}
