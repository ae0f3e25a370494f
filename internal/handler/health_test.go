package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	hconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MediPay/config"
)

func withProbes(t *testing.T, p map[string]Probe) {
	t.Helper()
	saved := probes
	probes = p
	t.Cleanup(func() { probes = saved })
}

func healthEngine() *route.Engine {
	h := route.NewEngine(hconfig.NewOptions([]hconfig.Option{}))
	h.GET("/", Landing)
	h.GET("/healthz", Healthz)
	return h
}

func TestHealthz(t *testing.T) {
	saved := config.Cfg
	t.Cleanup(func() { config.Cfg = saved })

	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	cases := []struct {
		name       string
		dataSource string
		probes     map[string]Probe
		want       int
	}{
		{"all healthy", "store", map[string]Probe{"database": ok, "redis": ok}, http.StatusOK},
		{"redis degraded", "store", map[string]Probe{"database": ok, "redis": down}, http.StatusOK},
		{"database down", "store", map[string]Probe{"database": down, "redis": ok}, http.StatusServiceUnavailable},
		{"database down with fixtures", "fixture", map[string]Probe{"database": down, "redis": ok}, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config.Cfg.DataSource = tc.dataSource
			withProbes(t, tc.probes)

			w := ut.PerformRequest(healthEngine(), http.MethodGet, "/healthz", nil)
			require.Equal(t, tc.want, w.Code)

			var body struct {
				Data struct {
					Components map[string]string `json:"components"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Len(t, body.Data.Components, 2)
		})
	}
}

func TestLanding(t *testing.T) {
	saved := config.Cfg
	t.Cleanup(func() { config.Cfg = saved })
	config.Cfg.ServiceName = "medipay"
	config.Cfg.ServiceVersion = "1.2.3"

	w := ut.PerformRequest(healthEngine(), http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"service":"medipay","version":"1.2.3"}}`, w.Body.String())
}
