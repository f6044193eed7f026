package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"task_manager/internal/service"

	"github.com/gin-gonic/gin"
)

func jwtTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	t.Setenv("JWT_SECRET", "middleware-test-secret")
	service.InitJWT()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWT(), func(c *gin.Context) {
		userID := c.GetInt64("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return r
}

func TestJWTMissingToken(t *testing.T) {
	r := jwtTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "No token supplied" {
		t.Fatalf("unexpected message: %q", body["message"])
	}
}

func TestJWTInvalidToken(t *testing.T) {
	r := jwtTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "invalid/expired token" {
		t.Fatalf("unexpected message: %q", body["message"])
	}
}

func TestJWTValidToken(t *testing.T) {
	r := jwtTestRouter(t)

	token, err := service.GenerateJWT(99)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]int64
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["user_id"] != 99 {
		t.Fatalf("expected user_id 99, got %d", body["user_id"])
	}
}
