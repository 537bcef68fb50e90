package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newBodyLimitRouter(maxBytes int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(MaxBodySize(maxBytes))
	router.POST("/", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func TestMaxBodySize_AllowsSmallBody(t *testing.T) {
	router := newBodyLimitRouter(64)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("ok"))))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMaxBodySize_RejectsOversizedBody(t *testing.T) {
	router := newBodyLimitRouter(8)

	body := strings.NewReader(strings.Repeat("x", 1024))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", body))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
