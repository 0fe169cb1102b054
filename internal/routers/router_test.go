package routers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/magnusfroste/notton/internal/metrics"
	pkgapp "github.com/magnusfroste/notton/pkg/app"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatus struct{}

func (fakeStatus) Online() bool      { return true }
func (fakeStatus) PendingCount() int { return 3 }
func (fakeStatus) Loading() bool     { return false }

func serve(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestPrivateRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.SetPending(3)

	r := NewPrivateRouter(Options{
		Gatherer: reg,
		Status:   fakeStatus{},
		Version:  pkgapp.VersionInfo{Version: "1.2.3"},
	})

	w := serve(r, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, "/status")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Code int        `json:"code"`
		Data SyncStatus `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, SyncStatus{Online: true, Pending: 3, Version: pkgapp.VersionInfo{Version: "1.2.3"}}, body.Data)

	w = serve(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "notton_pending_operations 3")

	assert.Equal(t, http.StatusOK, serve(r, "/debug/vars").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, DefaultPrefix+"/").Code, "pprof only in debug mode")
}

func TestStatusWithoutEngine(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewPrivateRouter(Options{RunMode: "debug", Gatherer: prometheus.NewRegistry()})
	assert.Equal(t, http.StatusInternalServerError, serve(r, "/status").Code)
	assert.Equal(t, http.StatusOK, serve(r, DefaultPrefix+"/").Code)
}
