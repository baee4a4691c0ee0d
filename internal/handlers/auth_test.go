package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"todo-manager/internal/config"
	"todo-manager/internal/middleware"
	"todo-manager/internal/services"
	"todo-manager/internal/store"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "hunter2"
)

// setupTestRouter mounts the same route table the server uses, backed by
// an in-memory store.
func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	auth := services.NewAuthService(config.AuthConfig{
		AdminEmail:    testAdminEmail,
		AdminPassword: testAdminPassword,
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
	})
	todos := services.NewTodoService(store.NewMemoryStore())

	authHandler := NewAuthHandler(auth)
	todoHandler := NewTodoHandler(todos)

	router := gin.New()
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/verify", middleware.RequireAuth(auth), authHandler.Verify)
		authGroup.POST("/logout", authHandler.Logout)
	}
	todoGroup := router.Group("/api/todos")
	todoGroup.Use(middleware.RequireAuth(auth))
	{
		todoGroup.GET("", todoHandler.ListTodos)
		todoGroup.POST("", todoHandler.CreateTodo)
		todoGroup.GET("/stats", todoHandler.GetStats)
		todoGroup.PUT("/:id", todoHandler.UpdateTodo)
		todoGroup.DELETE("/:id", todoHandler.DeleteTodo)
		todoGroup.PATCH("/:id/toggle", todoHandler.ToggleTodo)
	}
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func loginTestUser(t *testing.T, router *gin.Engine) string {
	t.Helper()

	w := doJSON(t, router, "POST", "/api/auth/login", "", gin.H{
		"email":    testAdminEmail,
		"password": testAdminPassword,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Login failed with status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse login response: %v", err)
	}
	return resp.Token
}

func TestLogin_Success(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, "POST", "/api/auth/login", "", gin.H{
		"email":    testAdminEmail,
		"password": testAdminPassword,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		User    struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !resp.Success {
		t.Error("Expected success true")
	}
	if resp.Token == "" {
		t.Error("Expected a token")
	}
	if resp.User.Email != testAdminEmail || resp.User.Role != "admin" {
		t.Errorf("Unexpected user %+v", resp.User)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, "POST", "/api/auth/login", "", gin.H{
		"email":    testAdminEmail,
		"password": "wrong",
	})

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["error"] != "Invalid credentials" {
		t.Errorf("Expected 'Invalid credentials', got %q", body["error"])
	}
}

func TestLogin_MissingFields(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty body", gin.H{}},
		{"missing password", gin.H{"email": testAdminEmail}},
		{"missing email", gin.H{"password": testAdminPassword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, "POST", "/api/auth/login", "", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestVerify_WithValidToken(t *testing.T) {
	router := setupTestRouter(t)
	token := loginTestUser(t, router)

	w := doJSON(t, router, "GET", "/api/auth/verify", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Success bool `json:"success"`
		User    struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !resp.Success || resp.User.Email != testAdminEmail {
		t.Errorf("Unexpected verify response: %s", w.Body.String())
	}
}

func TestVerify_WithoutToken(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, "GET", "/api/auth/verify", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestVerify_WithBadToken(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, "GET", "/api/auth/verify", "bogus", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestLogout(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, "POST", "/api/auth/logout", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !resp.Success {
		t.Error("Expected success true")
	}
}
