package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"MediPay/internal/service"
	"MediPay/pkg/errors"
	"MediPay/pkg/response"
)

// GetDashboardStats 仪表盘汇总，前端每 15 秒轮询
// GET /api/v1/dashboard/stats
func GetDashboardStats(ctx context.Context, c *app.RequestContext) {
	stats, err := service.Dashboard().Stats(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, stats)
}

// ListRecentTransactions 最近交易，limit 默认 10，最大 50
// GET /api/v1/dashboard/transactions
func ListRecentTransactions(ctx context.Context, c *app.RequestContext) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.Error(ctx, c, errors.InvalidRequest.WithMessage("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	txs, err := service.Dashboard().RecentTransactions(ctx, limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, txs)
}
