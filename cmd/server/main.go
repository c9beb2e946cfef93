package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"socialhub/internal/auth"
	"socialhub/internal/blob"
	"socialhub/internal/config"
	"socialhub/internal/database"
	"socialhub/internal/handler"
	"socialhub/internal/logger"
	"socialhub/internal/metrics"
	"socialhub/internal/realtime"
	"socialhub/internal/store"
	"socialhub/internal/store/badgerstore"
	"socialhub/internal/store/sqlstore"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .envファイルを読み込み
	envErr := godotenv.Load()

	// 環境変数を読み込み
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	if envErr != nil {
		log.Warn(".env file not found, using environment only", "error", envErr.Error())
	}
	warnInsecureDefaults(cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server.exit", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ln, err := net.Listen("tcp", ":"+cfg.ServerPort)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return serve(ctx, ln, cfg, log)
}

// serve runs the API on ln until ctx is cancelled. The store is closed only
// after HTTP shutdown and every websocket has been closed.
func serve(ctx context.Context, ln net.Listener, cfg config.Config, log *slog.Logger) error {
	defer ln.Close()

	// データベース接続を初期化
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	blobs, err := blob.NewDiskStore(cfg.ImageDir, cfg.PublicBaseURL)
	if err != nil {
		return err
	}

	m := metrics.New()
	dedup, err := realtime.NewDedupCache(cfg.DedupCacheSize)
	if err != nil {
		return err
	}
	authSvc := auth.NewService(st, cfg.JWTSecret, cfg.TokenTTL)
	registry := realtime.NewRegistry(m, log)
	router := realtime.NewRouter(st, dedup, registry, m, log, realtime.WithStoreTimeout(cfg.DBQueryTimeout))
	gateway := realtime.NewGateway(realtime.GatewayConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		SendQueue:      cfg.WSSendQueue,
		WriteTimeout:   cfg.WSWriteTimeout,
		PongWait:       cfg.WSPongWait,
		Admission:      admission(cfg, authSvc),
	}, router, registry, m, log)

	// ハンドラー初期化
	h := &handler.Handler{
		Store:   st,
		Auth:    authSvc,
		Blobs:   blobs,
		Router:  router,
		Gateway: gateway,
		Metrics: m,
		Config:  cfg,
		Log:     log,
	}

	// CORS対応
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		MaxAge:           300,
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           c.Handler(h.SetupRouter()),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	printBanner(cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server.start", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("server.shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// Shutdown does not track hijacked websocket connections
		registry.CloseAll()
		return err
	})
	return g.Wait()
}

// warnInsecureDefaults flags development-only defaults in other environments.
func warnInsecureDefaults(cfg config.Config, log *slog.Logger) {
	if cfg.UsesDefaultJWTSecret() && !cfg.IsDevelopment() {
		log.Warn("config.insecure_default", "key", "JWT_SECRET", "env", cfg.Env)
	}
}

// admission admits every websocket client unless WS_REQUIRE_TOKEN is set.
func admission(cfg config.Config, svc *auth.Service) realtime.Admission {
	if !cfg.WSRequireToken {
		return nil
	}
	return func(r *http.Request, labels realtime.Labels) error {
		return svc.AuthorizeSender(r.URL.Query().Get("token"), labels.Sender)
	}
}

// openStore picks the relational store when DB_DRIVER is set, the embedded one otherwise.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Store, error) {
	if !cfg.UsesSQL() {
		st, err := badgerstore.Open(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		log.Info("store.open", "backend", "badger", "path", cfg.BadgerPath, "in_memory", cfg.BadgerPath == "")
		return st, nil
	}

	db, err := database.Init(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	st, err := sqlstore.New(db, cfg.DBDriver, sqlstore.WithTimeout(cfg.DBQueryTimeout))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("store.open", "backend", cfg.DBDriver)
	return st, nil
}

func printBanner(cfg config.Config) {
	fmt.Println("========================================")
	fmt.Println("  SocialHub API Server")
	fmt.Println("========================================")
	fmt.Printf("  Environment: %s\n", cfg.Env)
	fmt.Printf("  Server: http://localhost:%s\n", cfg.ServerPort)
	fmt.Printf("  WebSocket: ws://localhost:%s/ws\n", cfg.ServerPort)
	if cfg.UsesSQL() {
		fmt.Printf("  Database: %s %s@%s:%s/%s\n", cfg.DBDriver, cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName)
	} else {
		fmt.Printf("  Database: badger %q\n", cfg.BadgerPath)
	}
	fmt.Printf("  Images: %s\n", cfg.ImageDir)
	fmt.Printf("  Allowed Origins: %v\n", cfg.AllowedOrigins)
	fmt.Println("========================================")
}
