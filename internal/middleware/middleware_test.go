package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tenant": GetTenantID(c), "cart": GetCartID(c)})
	})
	return r
}

func TestTenantMiddleware(t *testing.T) {
	r := newRouter(TenantMiddleware())

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantBody   string
	}{
		{"missing tenant", nil, http.StatusUnauthorized, "TENANT_REQUIRED"},
		{"tenant header", map[string]string{"X-Tenant-ID": "t-1"}, http.StatusOK, `"tenant":"t-1"`},
		{"vendor header wins", map[string]string{"X-Tenant-ID": "t-1", "X-Vendor-ID": "v-1"}, http.StatusOK, `"tenant":"v-1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestCartSessionMiddleware(t *testing.T) {
	r := newRouter(CartSessionMiddleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "CART_REQUIRED")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Cart-ID", " cart-7 ")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cart":"cart-7"`)
}

func TestCartSessionMiddlewareRejectsMalformedIDs(t *testing.T) {
	r := newRouter(CartSessionMiddleware())

	for _, id := range []string{"victim-cart/items?x=", "..", "../admin", "cart 7", "cart%2F7"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Cart-ID", id)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
		assert.Contains(t, w.Body.String(), "INVALID_CART_ID", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Cart-ID", "3f2c9a1e-7b4d-4c1a-9e2f-0a1b2c3d4e5f")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
