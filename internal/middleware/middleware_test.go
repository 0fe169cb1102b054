package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecoveryWithLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)
	lg := zap.New(core)

	r := gin.New()
	r.Use(AccessLogWithLogger(lg), RecoveryWithLogger(lg))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"details":"boom"`)
	assert.Equal(t, 1, logs.FilterMessage("Recovered from unknown panic").Len())
	assert.Equal(t, 1, logs.FilterMessage("/boom").Len())
}
