package stubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Run boots the trading backend using the supplied configuration.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("zap init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, cleanup, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = cleanup() }()

	store := NewStore(db)
	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	router := setupRouter(cfg, newHandler(logger, store, cfg))

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("stubtrader listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func setupRouter(cfg Config, h *handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(h.logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/authentication/register", h.register)
	router.POST("/authentication/login", h.login)

	authenticated := router.Group("/")
	authenticated.Use(authMiddleware(h.signKey, cfg.TokenIssuer))

	authenticated.GET("/transaction/getStockPrices", h.getStockPrices)
	authenticated.GET("/transaction/getStockPortfolio", h.getStockPortfolio)
	authenticated.GET("/transaction/getWalletBalance", h.getWalletBalance)
	authenticated.GET("/transaction/getWalletTransactions", h.getWalletTransactions)
	authenticated.GET("/transaction/getStockTransactions", h.getStockTransactions)
	authenticated.POST("/transaction/addMoneyToWallet", h.addMoneyToWallet)
	authenticated.POST("/transaction/createStock", h.createStock)
	authenticated.POST("/transaction/addStockToUser", h.addStockToUser)
	authenticated.POST("/engine/placeStockOrder", h.placeStockOrder)
	authenticated.POST("/engine/cancelStockTransaction", h.cancelStockTransaction)

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		requestID := uuid.NewString()
		started := time.Now()
		ctx.Set("request_id", requestID)
		ctx.Next()
		logger.Info("request handled",
			zap.String("request_id", requestID),
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("elapsed", time.Since(started)),
		)
	}
}

func openDatabase(ctx context.Context, dsn string) (*gorm.DB, func() error, error) {
	driver, sqlitePath, err := resolveDriver(dsn)
	if err != nil {
		return nil, nil, err
	}

	var db *gorm.DB
	switch driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(sqlitePath), &gorm.Config{})
	default:
		return nil, nil, fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, nil
}

func resolveDriver(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres", "", nil
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := u.Path
		if path == "" {
			path = u.Host
		}
		if path == "" || path == "/" {
			path = "stubtrader.db"
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return "sqlite", sqlitePath, err
	}
	// Treat everything else as a direct sqlite path.
	sqlitePath, err := normalizeSQLitePath(dsn)
	return "sqlite", sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}
