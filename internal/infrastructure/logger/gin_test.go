package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := bufferLogger(&buf)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("request_id", "req-1")
		c.Next()
	})
	r.Use(GinMiddleware(base))
	r.GET("/orders", func(c *gin.Context) {
		assert.Equal(t, "req-1", GetRequestID(c.Request.Context()))
		assert.NotNil(t, GetGinLogger(c))
		c.Status(http.StatusOK)
	})
	r.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders?status=NEW", nil))
	require.Equal(t, http.StatusOK, w.Code)

	line := decodeLine(t, &buf)
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "/orders", line["path"])
	assert.Equal(t, "status=NEW", line["query"])
	assert.EqualValues(t, 200, line["status"])

	buf.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, "warn", decodeLine(t, &buf)["level"])
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer

	r := gin.New()
	r.Use(Recovery(bufferLogger(&buf)))
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestGetGinLogger_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}

func TestGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	gl := NewGormLogger(bufferLogger(&buf), gormlogger.Warn, WithSlowThreshold(10*time.Millisecond))
	sql := func() (string, int64) { return "SELECT * FROM products", 3 }

	gl.Trace(t.Context(), time.Now(), sql, nil)
	assert.Empty(t, buf.String(), "fast queries are not logged at warn")

	gl.Trace(t.Context(), time.Now().Add(-time.Second), sql, nil)
	assert.Equal(t, "slow query", decodeLine(t, &buf)["msg"])

	buf.Reset()
	gl.Trace(t.Context(), time.Now(), sql, gormlogger.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	gl.Trace(t.Context(), time.Now(), sql, errors.New("constraint failed"))
	line := decodeLine(t, &buf)
	assert.Equal(t, "query failed", line["msg"])
	assert.Equal(t, "constraint failed", line["error"])

	buf.Reset()
	silent := gl.LogMode(gormlogger.Silent)
	silent.Trace(t.Context(), time.Now(), sql, errors.New("ignored"))
	assert.Empty(t, buf.String())
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("WARN"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
}
