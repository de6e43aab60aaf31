package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"abserver/internal/database/dbtest"
	"abserver/internal/models"
	"abserver/internal/services"
	"abserver/pkg/config"
	"abserver/pkg/jwt"
	"abserver/pkg/logger"

	"github.com/gin-gonic/gin"
)

func TestLoginRateLimiter(t *testing.T) {
	if NewLoginRateLimiter(config.RateLimitConfig{}) != nil {
		t.Fatalf("zero rate must disable the limiter")
	}

	limiter := NewLoginRateLimiter(config.RateLimitConfig{LoginPerMinute: 1, LoginBurst: 2})
	if !limiter.Allow("1.1.1.1") || !limiter.Allow("1.1.1.1") {
		t.Fatalf("burst requests must pass")
	}
	if limiter.Allow("1.1.1.1") {
		t.Fatalf("third request must be limited")
	}
	if !limiter.Allow("2.2.2.2") {
		t.Fatalf("limits are per IP")
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "1.1.1.1:1234"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.New(t)
	manager := jwt.NewJWTManager("secret", time.Hour)
	auth := NewAuthMiddleware(services.NewUserService(db), manager)

	admin := dbtest.CreateUser(t, db, "admin", true)
	user := dbtest.CreateUser(t, db, "user", false)
	disabled := dbtest.CreateUser(t, db, "disabled", false)
	if err := db.Model(&models.User{}).Where("id = ?", disabled.ID).Update("status", models.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user: %v", err)
	}

	r := gin.New()
	r.GET("/me", auth.RequireLogin(), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUsername(c))
	})
	r.GET("/admin", auth.RequireLogin(), auth.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	token := func(u *models.User) string {
		s, err := manager.GenerateToken(u.ID, u.Username, u.IsAdmin)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		return "Bearer " + s
	}
	forged, _ := jwt.NewJWTManager("other", time.Hour).GenerateToken(admin.ID, "admin", true)

	cases := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"no header", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic abc", http.StatusUnauthorized},
		{"forged", "/me", "Bearer " + forged, http.StatusUnauthorized},
		{"disabled", "/me", token(disabled), http.StatusUnauthorized},
		{"user", "/me", token(user), http.StatusOK},
		{"user on admin", "/admin", token(user), http.StatusForbidden},
		{"admin", "/admin", token(admin), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareStoreFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.New(t)
	manager := jwt.NewJWTManager("secret", time.Hour)
	auth := NewAuthMiddleware(services.NewUserService(db), manager)
	user := dbtest.CreateUser(t, db, "user", false)
	deleted := dbtest.CreateUser(t, db, "deleted", false)
	if err := db.Delete(&models.User{}, deleted.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}

	r := gin.New()
	r.GET("/me", auth.RequireLogin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	call := func(u *models.User) *httptest.ResponseRecorder {
		token, err := manager.GenerateToken(u.ID, u.Username, u.IsAdmin)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := call(deleted); rec.Code != http.StatusUnauthorized {
		t.Fatalf("deleted user: status = %d, want 401", rec.Code)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	rec := call(user)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("store failure: status = %d, want 500", rec.Code)
	}
	if got := rec.Body.String(); got != `{"error":"Internal server error"}` {
		t.Fatalf("body = %s", got)
	}
}

func TestErrorHandlerRecoversPanics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := rec.Body.String(); got != `{"error":"Internal server error"}` {
		t.Fatalf("body = %s", got)
	}
}

func TestRequestLoggerScopesEntry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	var requestID interface{}
	r.GET("/ping", func(c *gin.Context) {
		requestID = logger.WithContext(c.Request.Context()).Data["request_id"]
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if requestID != "req-42" || rec.Header().Get(HeaderRequestID) != "req-42" {
		t.Fatalf("request id not propagated: entry=%v header=%q", requestID, rec.Header().Get(HeaderRequestID))
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if generated := rec.Header().Get(HeaderRequestID); generated == "" || requestID != generated {
		t.Fatalf("generated id mismatch: entry=%v header=%q", requestID, generated)
	}
}
