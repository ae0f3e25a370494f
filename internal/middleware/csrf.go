package middleware

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/csrf"
	"github.com/hertz-contrib/sessions"
	"github.com/hertz-contrib/sessions/cookie"
	"go.uber.org/zap"

	"MediPay/config"
	"MediPay/pkg/errors"
	"MediPay/pkg/logger"
	"MediPay/pkg/response"
)

const (
	csrfSessionName = "medipay-csrf"
	csrfTokenHeader = "X-CSRF-Token"
)

// CSRFMiddleware 基于 cookie session 的 CSRF 校验，webhook 由签名保护，跳过
func CSRFMiddleware() []app.HandlerFunc {
	store := cookie.NewStore([]byte(config.Cfg.CSRFSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   config.Cfg.IsProduction(),
	})

	return []app.HandlerFunc{
		sessions.New(csrfSessionName, store),
		csrf.New(
			csrf.WithSecret(config.Cfg.CSRFSecret),
			csrf.WithNext(func(ctx context.Context, c *app.RequestContext) bool {
				return strings.HasPrefix(string(c.Path()), "/api/webhooks")
			}),
			csrf.WithErrorFunc(func(ctx context.Context, c *app.RequestContext) {
				logger.Logger.Warn("CSRF check failed",
					zap.String("path", string(c.Path())),
					zap.String("client_ip", c.ClientIP()),
				)
				response.AbortWithError(ctx, c, errors.InvalidRequest.WithMessage("csrf token invalid"))
			}),
		),
		exposeCSRFToken,
	}
}

// exposeCSRFToken 安全方法的响应里下发 token，供前端回填到请求头
func exposeCSRFToken(ctx context.Context, c *app.RequestContext) {
	switch string(c.Method()) {
	case "GET", "HEAD", "OPTIONS":
		c.Header(csrfTokenHeader, csrf.GetToken(c))
	}
	c.Next(ctx)
}
