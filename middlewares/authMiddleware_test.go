package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/svfabworks/factory_backend/utils"
)

func runGated(t *testing.T, handler gin.HandlerFunc, decorate func(*http.Request) *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if decorate != nil {
		req = decorate(req)
	}
	c.Request = req
	handler(c)
	if !c.IsAborted() {
		c.Status(http.StatusOK)
	}
	return w
}

func TestRequireAuth(t *testing.T) {
	w := runGated(t, RequireAuth(), nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous request expected 401, got %d", w.Code)
	}

	w = runGated(t, RequireAuth(), func(req *http.Request) *http.Request {
		ctx := utils.SetUsernameInContext(req.Context(), "operator")
		return req.WithContext(ctx)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("authenticated request expected 200, got %d", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	w := runGated(t, RequireAdmin(), func(req *http.Request) *http.Request {
		ctx := utils.SetUsernameInContext(req.Context(), "operator")
		ctx = utils.SetIsAdminInContext(ctx, false)
		return req.WithContext(ctx)
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin expected 403, got %d", w.Code)
	}

	w = runGated(t, RequireAdmin(), func(req *http.Request) *http.Request {
		ctx := utils.SetUsernameInContext(req.Context(), "boss")
		ctx = utils.SetIsAdminInContext(ctx, true)
		return req.WithContext(ctx)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("admin expected 200, got %d", w.Code)
	}
}
