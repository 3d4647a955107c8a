package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/rackbook-api/pkg/middleware/requestid"
)

func TestGinMiddlewareLogsActorAndLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(requestid.Middleware())
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) {
		c.Set(ActorKey, "user-1")
		c.Status(http.StatusOK)
	})
	r.GET("/locked", func(c *gin.Context) { c.Status(http.StatusConflict) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/locked", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "user-1", entries[0].ContextMap()["actor"])
	require.NotEmpty(t, entries[0].ContextMap()["request_id"])
	require.Equal(t, zap.WarnLevel, entries[1].Level)
}
