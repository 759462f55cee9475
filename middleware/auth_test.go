package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"aroi-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func setupDriverRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret-key-for-unit-tests")

	r := gin.New()
	driver := r.Group("/driver")
	driver.Use(AuthMiddleware())
	driver.Use(DriverMiddleware())
	driver.GET("/orders", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"orders": []string{}})
	})
	return r
}

func TestDriverMiddlewareAllowsDriver(t *testing.T) {
	router := setupDriverRouter(t)

	token, _ := utils.GenerateToken(uuid.New(), "driver@test.com", "driver", nil)
	req := httptest.NewRequest("GET", "/driver/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDriverMiddlewareRejectsOtherRoles(t *testing.T) {
	router := setupDriverRouter(t)

	for _, role := range []string{"customer", "restaurant_owner", "admin"} {
		token, _ := utils.GenerateToken(uuid.New(), role+"@test.com", role, nil)
		req := httptest.NewRequest("GET", "/driver/orders", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("role %s: expected status 403, got %d", role, w.Code)
		}
	}
}

func TestDriverMiddlewareRequiresToken(t *testing.T) {
	router := setupDriverRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/driver/orders", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}
