package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shopwala/shopwala-golang/internal/auth"
	"github.com/shopwala/shopwala-golang/internal/cache"
	"github.com/shopwala/shopwala-golang/internal/chat"
	"github.com/shopwala/shopwala-golang/internal/database"
	"github.com/shopwala/shopwala-golang/internal/events"
	"github.com/shopwala/shopwala-golang/internal/handlers"
	"github.com/shopwala/shopwala-golang/internal/routes"
)

const (
	chatSubscriberBuffer = 16
	shutdownTimeout      = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Shopwala API server",
	Long: `Start the HTTP server. Redis caching and RabbitMQ order events are
enabled when redis.addr and rabbitmq.url are set.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := zap.L()

	// 1. --- Database ---
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	// 2. --- Cache (optional) ---
	var c cache.Cache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		r, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.PoolSize, cfg.App.Name+":")
		if err != nil {
			return err
		}
		defer r.Close()
		c = r
	} else {
		log.Info("redis not configured, caching disabled")
	}

	// 3. --- Order events (optional) ---
	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitMQ.URL != "" {
		mq, err := events.NewRabbitMQ(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return err
		}
		defer mq.Close()
		publisher = mq
	} else {
		log.Info("rabbitmq not configured, order events disabled")
	}

	// 4. --- Application ---
	app := handlers.New(db, handlers.Deps{
		Cache:          c,
		CacheTTL:       cfg.Redis.TTL,
		Publisher:      publisher,
		Hub:            chat.NewHub(chatSubscriberBuffer),
		DeliveryCities: cfg.Checkout.DeliveryCities,
	})

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.SetupRouter(app, routes.Options{
		Tokens:         auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL),
		Logger:         log,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := newHTTPServer(cfg.Server.Addr, router)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newHTTPServer builds a server whose request contexts are cancelled when
// Shutdown starts, so chat streams end instead of holding shutdown open.
func newHTTPServer(addr string, h http.Handler) *http.Server {
	baseCtx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancel)
	return srv
}
