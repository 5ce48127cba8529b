package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"simonchat/internal/ai"
	"simonchat/internal/api"
	"simonchat/internal/chat"
	"simonchat/internal/config"
	"simonchat/internal/logger"
	"simonchat/internal/store"
)

func main() {
	logger.Init("info", "console")

	cfgPath := os.Getenv("SIMONCHAT_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	st, closeStore, err := openStore(cfg.Store)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer closeStore()

	gateway, err := ai.New(context.Background(), cfg.AI)
	if err != nil {
		logger.Fatalf("init ai gateway: %v", err)
	}

	chatService := chat.NewService(st, gateway)
	handler := api.NewHandler(chatService)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(api.RequestLogger(), gin.Recovery())
	handler.RegisterRoutes(router)
	router.StaticFile("/", "./web/index.html")

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s (store=%s, provider=%s)", srv.Addr, cfg.Store.Backend, cfg.AI.Provider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("http server shutdown: %v", err)
	}
	logger.Info("server stopped")
}

// openStore builds the configured store backend; the returned func releases
// any held connections.
func openStore(cfg config.StoreConfig) (store.Store, func(), error) {
	switch cfg.Backend {
	case "", "memory":
		return store.NewMemoryStore(), func() {}, nil
	case "sqlite", "sqlite3", "mysql":
		st, err := store.OpenSQL(cfg.Backend, cfg.SQL.DSN)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	case "redis":
		st, err := store.OpenRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	default:
		logger.Fatalf("unsupported store backend: %s", cfg.Backend)
		return nil, nil, nil
	}
}
