package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol"

	"MediPay/config"
	"MediPay/internal/middleware"
	"MediPay/internal/service"
	"MediPay/pkg/errors"
	"MediPay/pkg/response"
)

// currentUser 网关之后理论上一定有用户 ID
func currentUser(ctx context.Context, c *app.RequestContext) (string, bool) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthenticated)
		return "", false
	}
	return userID, true
}

// GetMe 当前会话用户与 metadata claims
// GET /api/v1/me
func GetMe(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	data, err := service.User().Me(ctx, userID, middleware.GetSessionMetadata(ctx, c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, data)
}

// RefreshSession 重新读取 metadata 并签发会话，同时写回 cookie
// POST /api/v1/me/session/refresh
func RefreshSession(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	data, err := service.User().RefreshSession(ctx, userID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	maxAge := int(time.Until(data.ExpiresAt).Seconds())
	c.SetCookie(config.Cfg.SessionCookieName, data.Token, maxAge, "/", "",
		protocol.CookieSameSiteLaxMode, config.Cfg.IsProduction(), true)

	response.Success(ctx, c, data)
}
