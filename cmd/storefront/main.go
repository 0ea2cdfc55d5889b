package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_storefront/internal/auth"
	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/httpapi"
	"github.com/fjod/go_storefront/internal/orders"
	"github.com/fjod/go_storefront/internal/store"
)

type Config struct {
	HTTPPort        string
	BackendURL      string
	DBPath          string
	RedisAddr       string
	SubmitDelay     time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		BackendURL:      getEnv("BACKEND_URL", "https://ecommerce-backend-eiv5.onrender.com"),
		DBPath:          getEnv("DB_PATH", "storefront.db"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		SubmitDelay:     getEnvDuration("SUBMIT_DELAY", 5*time.Second),
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})

	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open local store")
	}
	defer st.Close()
	log.WithField("path", cfg.DBPath).Info("local store ready")

	var productCache cache.ProductCache = cache.NewMemoryCache()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.WithError(err).Fatal("redis connection failed")
		}
		productCache = cache.NewRedisCache(redisClient)
		log.WithField("addr", cfg.RedisAddr).Info("using redis product cache")
	}

	catalogClient := catalog.NewClient(cfg.BackendURL, log)
	ordersClient := orders.NewClient(cfg.BackendURL, log)
	session := auth.NewSession(cfg.BackendURL, st, log)

	controller := cart.NewController(context.Background(), st, catalogClient, productCache, session,
		cart.WithLogger(log),
		cart.WithRemoteCart(ordersClient))

	api := httpapi.NewServer(controller, session, catalogClient, ordersClient,
		httpapi.WithLogger(log),
		httpapi.WithSubmitDelay(cfg.SubmitDelay))

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(api.Routes(), "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.HTTPPort).Info("storefront listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
