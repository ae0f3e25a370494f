package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"MediPay/config"
	"MediPay/pkg/response"
	"MediPay/storage/database"
	"MediPay/storage/redis"
)

// Probe 健康检查项，返回 nil 表示正常
type Probe func(ctx context.Context) error

var probes = map[string]Probe{
	"database": database.Ping,
	"redis": func(ctx context.Context) error {
		if !redis.Ready() {
			return errRedisDisabled
		}
		return redis.Client().Ping(ctx).Err()
	},
}

type healthError string

func (e healthError) Error() string { return string(e) }

const errRedisDisabled = healthError("redis not initialized")

// Landing 公开首页
// GET /
func Landing(ctx context.Context, c *app.RequestContext) {
	response.Success(ctx, c, map[string]interface{}{
		"service": config.Cfg.ServiceName,
		"version": config.Cfg.ServiceVersion,
	})
}

// Healthz 数据库不可用时返回 503，redis 只影响缓存，降级不算失败
// GET /healthz
func Healthz(ctx context.Context, c *app.RequestContext) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := consts.StatusOK
	components := make(map[string]string, len(probes))
	for name, probe := range probes {
		if err := probe(ctx); err != nil {
			components[name] = err.Error()
			if name == "database" && !config.Cfg.UseFixtureData() {
				status = consts.StatusServiceUnavailable
			}
			continue
		}
		components[name] = "ok"
	}

	c.JSON(status, response.SuccessResponse{
		Data: map[string]interface{}{
			"status":      consts.StatusMessage(status),
			"data_source": config.Cfg.DataSource,
			"components":  components,
		},
	})
}
