package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

// RequestID 沿用上游传入的请求 ID，没有则生成
func RequestID() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		id := string(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(requestIDHeader, id)
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next(ctx)
	}
}

func GetRequestID(c *app.RequestContext) string {
	return c.GetString(requestIDKey)
}
