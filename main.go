package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-manager/internal/config"
	"todo-manager/internal/handlers"
	"todo-manager/internal/middleware"
	"todo-manager/internal/monitoring"
	"todo-manager/internal/services"
	"todo-manager/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"
)

// Application holds all application dependencies and state
type Application struct {
	Config *config.Config
	Mongo  *mongo.Client
	Store  *store.MongoStore
	Redis  *redis.Client
	Router *gin.Engine
	Server *http.Server

	// Services
	AuthService services.AuthService
	TodoService services.TodoService
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize application: %v", err)
	}

	app.setupRoutes()
	app.startServer()
}

func initializeApplication(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
	}

	log.Println("🚀 Initializing Todo Manager Backend...")
	log.Printf("📋 Environment: %s", cfg.Server.Environment)

	client, err := store.Connect(cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("mongodb connection failed: %w", err)
	}
	app.Mongo = client
	app.Store = store.NewMongoStore(client, cfg.Mongo.Database)
	log.Println("✅ MongoDB connected")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Store.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}
	log.Println("✅ Indexes ensured")

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Printf("⚠️  Invalid REDIS_URL: %v (continuing without redis)", err)
		} else {
			redisClient := redis.NewClient(opts)
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer pingCancel()
			if err := redisClient.Ping(pingCtx).Err(); err != nil {
				log.Printf("⚠️  Redis unavailable: %v (login rate limiting disabled)", err)
			} else {
				app.Redis = redisClient
				log.Println("✅ Redis connected")
			}
		}
	}

	app.AuthService = services.NewAuthService(cfg.Auth)
	app.TodoService = services.NewTodoService(app.Store)
	log.Println("✅ All services initialized")

	monitoring.RegisterHealthCheck("mongodb", func(ctx context.Context) error {
		return app.Mongo.Ping(ctx, nil)
	})
	if app.Redis != nil {
		monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		})
	}

	return app, nil
}

func (app *Application) setupRoutes() {
	r := gin.New()

	// Global middleware stack (order matters!)
	r.Use(gin.Logger())
	r.Use(monitoring.MetricsMiddleware())
	r.Use(middleware.RecoveryWithLog())

	rateLimit := rate.Limit(float64(app.Config.RateLimit.RequestsPerMin) / 60.0)
	r.Use(middleware.RateLimiter(rateLimit, app.Config.RateLimit.BurstSize))

	// CORS is open for cross-origin browser access.
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	// Health and monitoring endpoints (no auth required)
	r.GET("/health", monitoring.HealthHandler())
	r.GET("/ready", monitoring.ReadinessHandler())
	r.GET("/live", monitoring.LivenessHandler())
	r.GET("/metrics", monitoring.MetricsHandler())

	api := r.Group("/api")

	authHandler := handlers.NewAuthHandler(app.AuthService)
	authRoutes := api.Group("/auth")
	{
		loginHandlers := []gin.HandlerFunc{authHandler.Login}
		if app.Redis != nil {
			loginLimiter := middleware.NewLoginRateLimiter(app.Redis, app.Config.RateLimit.LoginPerMin)
			loginHandlers = append([]gin.HandlerFunc{loginLimiter.Middleware()}, loginHandlers...)
		}
		authRoutes.POST("/login", loginHandlers...)
		authRoutes.GET("/verify", middleware.RequireAuth(app.AuthService), authHandler.Verify)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	todoHandler := handlers.NewTodoHandler(app.TodoService)
	todoRoutes := api.Group("/todos")
	todoRoutes.Use(middleware.RequireAuth(app.AuthService))
	{
		todoRoutes.GET("", todoHandler.ListTodos)
		todoRoutes.POST("", todoHandler.CreateTodo)
		todoRoutes.GET("/stats", todoHandler.GetStats)
		todoRoutes.PUT("/:id", todoHandler.UpdateTodo)
		todoRoutes.DELETE("/:id", todoHandler.DeleteTodo)
		todoRoutes.PATCH("/:id/toggle", todoHandler.ToggleTodo)
	}

	app.Router = r
}

func (app *Application) startServer() {
	addr := app.Config.GetServerAddr()

	app.Server = &http.Server{
		Addr:         addr,
		Handler:      app.Router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("🛑 Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.Server.Shutdown(ctx); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}

		app.cleanup()
		log.Println("✅ Server stopped gracefully")
	}()

	log.Printf("🚀 Server starting on %s", addr)
	log.Printf("📊 Metrics available at http://%s/metrics", addr)
	log.Printf("💚 Health check at http://%s/health", addr)

	if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}

func (app *Application) cleanup() {
	log.Println("🧹 Cleaning up resources...")

	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			log.Printf("⚠️  Error closing redis: %v", err)
		}
	}

	if app.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Mongo.Disconnect(ctx); err != nil {
			log.Printf("⚠️  Error closing mongodb: %v", err)
		}
	}

	log.Println("✅ Cleanup complete")
}
