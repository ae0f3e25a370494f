package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"MediPay/internal/service"
	"MediPay/pkg/response"
	"MediPay/pkg/webhook"
)

// headerOr 优先读 svix-* 头，兼容 standard-webhooks 的 webhook-* 头
func headerOr(c *app.RequestContext, primary, fallback string) string {
	if v := c.Request.Header.Get(primary); v != "" {
		return v
	}
	return c.Request.Header.Get(fallback)
}

// IdentityWebhook 身份服务的用户事件回调，必须使用原始请求体验签
// POST /api/webhooks/identity
func IdentityWebhook(ctx context.Context, c *app.RequestContext) {
	svc, err := service.Webhook()
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	headers := webhook.Headers{
		ID:        headerOr(c, webhook.HeaderID, webhook.HeaderIDAlt),
		Timestamp: headerOr(c, webhook.HeaderTimestamp, webhook.HeaderTimestampAlt),
		Signature: headerOr(c, webhook.HeaderSignature, webhook.HeaderSignatureAlt),
	}

	result, err := svc.Handle(ctx, c.Request.Body(), headers)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}
