package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"todo-manager/internal/config"
	"todo-manager/internal/services"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	auth := services.NewAuthService(config.AuthConfig{
		AdminEmail:    "admin@example.com",
		AdminPassword: "secret",
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
	})

	token, _, err := auth.Login("admin@example.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	router := gin.New()
	router.GET("/protected", RequireAuth(auth), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no identity"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": user.Email, "role": user.Role})
	})

	return router, token
}

func TestRequireAuth_MissingToken(t *testing.T) {
	router, _ := setupAuthRouter(t)

	req, _ := http.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["error"] != "Access token required" {
		t.Errorf("Expected 'Access token required', got %q", body["error"])
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	router, _ := setupAuthRouter(t)

	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["error"] != "Invalid or expired token" {
		t.Errorf("Expected 'Invalid or expired token', got %q", body["error"])
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	router, token := setupAuthRouter(t)

	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["email"] != "admin@example.com" {
		t.Errorf("Expected email 'admin@example.com', got %q", body["email"])
	}
	if body["role"] != "admin" {
		t.Errorf("Expected role 'admin', got %q", body["role"])
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty header", "", ""},
		{"bearer token", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"wrong scheme", "Basic abc123", ""},
		{"missing token", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bearerToken(tt.header); got != tt.want {
				t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}
