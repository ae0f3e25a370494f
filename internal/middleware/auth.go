package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"

	"MediPay/config"
	"MediPay/pkg/errors"
	"MediPay/pkg/identity"
	"MediPay/pkg/response"
	"MediPay/pkg/token"
)

const (
	IdentityKey = token.IdentityKey

	onboardingRedirect = "/onboarding"
)

var (
	gateMiddleware *jwt.HertzJWTMiddleware
	publicRoutes   *RouteMatcher
)

// RouteMatcher 精确路径或以 * 结尾的前缀
type RouteMatcher struct {
	exact    map[string]struct{}
	prefixes []string
}

func NewRouteMatcher(patterns []string) *RouteMatcher {
	m := &RouteMatcher{exact: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.HasSuffix(p, "*") {
			m.prefixes = append(m.prefixes, strings.TrimSuffix(p, "*"))
			continue
		}
		m.exact[p] = struct{}{}
	}
	return m
}

func (m *RouteMatcher) Match(path string) bool {
	if _, ok := m.exact[path]; ok {
		return true
	}
	for _, prefix := range m.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func initAuthMiddleware() error {
	sharedGenerator := token.GetGenerator()
	if sharedGenerator == nil {
		return fmt.Errorf("token generator not initialized, call token.Init() first")
	}

	// 会话为 HS256 签名，身份服务的 JWT 模板与本服务共用 SESSION_JWT_SECRET
	cookieName := config.Cfg.SessionCookieName
	mw, err := jwt.New(&jwt.HertzJWTMiddleware{
		Realm:       sharedGenerator.Realm,
		Key:         sharedGenerator.Key,
		Timeout:     sharedGenerator.Timeout,
		IdentityKey: sharedGenerator.IdentityKey,
		TimeFunc:    sharedGenerator.TimeFunc,

		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			uid, _ := jwt.ExtractClaims(ctx, c)[IdentityKey].(string)
			if uid == "" {
				return nil
			}
			return uid
		},

		Authorizator: func(data interface{}, ctx context.Context, c *app.RequestContext) bool {
			return data != nil
		},

		// 未登录一律跳转登录页，API 路径也一样
		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			c.Redirect(http.StatusFound, []byte(config.Cfg.LoginPath))
		},

		TokenLookup:   "header: Authorization, cookie: " + cookieName,
		TokenHeadName: "Bearer",
		SendCookie:    false,
		CookieName:    cookieName,
	})
	if err != nil {
		return fmt.Errorf("failed to build access gate: %w", err)
	}

	gateMiddleware = mw
	publicRoutes = NewRouteMatcher(config.Cfg.PublicRoutes)
	return nil
}

// AccessGate 公开路径直接放行，其余路径必须携带有效会话
func AccessGate() app.HandlerFunc {
	if gateMiddleware == nil {
		panic("AccessGate not initialized, call Init() first")
	}
	verify := gateMiddleware.MiddlewareFunc()

	return func(ctx context.Context, c *app.RequestContext) {
		if publicRoutes.Match(string(c.Path())) {
			c.Next(ctx)
			return
		}
		verify(ctx, c)
	}
}

// RequireOnboarded 会话 claims 中 onboardingComplete 不为 true 时拒绝访问
func RequireOnboarded() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if !GetSessionMetadata(ctx, c).OnboardingComplete() {
			response.AbortWithError(ctx, c, errors.WithDetails(errors.OnboardingRequired, map[string]interface{}{
				"redirect": onboardingRedirect,
			}))
			return
		}
		c.Next(ctx)
	}
}

// GetUserID 从请求上下文中获取身份服务的用户 ID
func GetUserID(ctx context.Context, c *app.RequestContext) (string, bool) {
	userID, exists := c.Get(IdentityKey)
	if !exists {
		return "", false
	}

	id, ok := userID.(string)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}

// GetSessionMetadata 会话 token 签发时的 metadata 快照，可能落后于身份服务
func GetSessionMetadata(ctx context.Context, c *app.RequestContext) identity.Metadata {
	raw, ok := jwt.ExtractClaims(ctx, c)[token.MetadataClaim].(map[string]interface{})
	if !ok {
		return identity.Metadata{}
	}
	return identity.Metadata(raw)
}
