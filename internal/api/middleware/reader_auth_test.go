package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupReaderAuthRouter(apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	router := gin.New()
	router.Use(ReaderAuth(logger, apiKey))
	router.POST("/scan", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestReaderAuth(t *testing.T) {
	t.Run("AcceptsValidKey", func(t *testing.T) {
		router := setupReaderAuthRouter("reader-secret")

		req, _ := http.NewRequest(http.MethodPost, "/scan", nil)
		req.Header.Set(ReaderAPIKeyHeader, "reader-secret")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("RejectsWrongKey", func(t *testing.T) {
		router := setupReaderAuthRouter("reader-secret")

		req, _ := http.NewRequest(http.MethodPost, "/scan", nil)
		req.Header.Set(ReaderAPIKeyHeader, "wrong")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "UNAUTHORIZED")
	})

	t.Run("RejectsMissingKey", func(t *testing.T) {
		router := setupReaderAuthRouter("reader-secret")

		req, _ := http.NewRequest(http.MethodPost, "/scan", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("EmptyConfiguredKeyDisablesCheck", func(t *testing.T) {
		router := setupReaderAuthRouter("")

		req, _ := http.NewRequest(http.MethodPost, "/scan", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
