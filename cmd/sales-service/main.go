package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/petshop-plataforma/sales-service/internal/api/handlers"
	"github.com/petshop-plataforma/sales-service/internal/api/middleware"
	"github.com/petshop-plataforma/sales-service/internal/config"
	"github.com/petshop-plataforma/sales-service/internal/health"
	"github.com/petshop-plataforma/sales-service/internal/metrics"
	"github.com/petshop-plataforma/sales-service/internal/registry"
	repository "github.com/petshop-plataforma/sales-service/internal/repositories"
	service "github.com/petshop-plataforma/sales-service/internal/services"
	"github.com/petshop-plataforma/sales-service/internal/telemetry"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Monetary values go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	// Load config
	cfg := config.MustLoad()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing setup
	if cfg.Telemetry.OTLPEndpoint != "" {
		shutdownTracer, err := telemetry.InitTracer(ctx, cfg)
		if err != nil {
			slog.Error("Failed to initialize tracer", slog.String("error", err.Error()))
			os.Exit(1)
		}

		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer flushCancel()

			if err := shutdownTracer(flushCtx); err != nil {
				slog.Error("Tracer shutdown encountered an issue", slog.String("error", err.Error()))
			}
		}()
	}

	// Database setup
	repos, err := repository.New(cfg)
	if err != nil {
		slog.Error("Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("Database connection closed")
		}
	}()

	// Redis setup (rate limiter)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConnect.Addr,
		Password: cfg.RedisConnect.Password,
		DB:       cfg.RedisConnect.DB,
	})

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		slog.Warn("Redis unreachable, rate limiting will fail open", slog.String("error", err.Error()))
	}
	pingCancel()

	productService := service.NewProductService(repository.NewProductRepo(repos.DB))
	productHandler := handlers.NewProductHandler(productService)
	cartService := service.NewCartService(repository.NewCartRepo(repos.DB))
	cartHandler := handlers.NewCartHandler(cartService)
	rateLimiter := middleware.NewRateLimiter(redisClient, &cfg.RateConfig)

	healthChecker, err := health.New(cfg)
	if err != nil {
		slog.Error("Failed to set up health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("Storage initialized", slog.String("env", cfg.Env), slog.String("version", "1.0.0"))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("GET /carrinho/{idCliente}", cartHandler.GetCart())
	routerMux.HandleFunc("POST /carrinho/adicionar", rateLimiter.Limit(cartHandler.AddItem()))
	routerMux.HandleFunc("DELETE /carrinho/remover/{idProduto}", rateLimiter.Limit(cartHandler.RemoveItem()))
	routerMux.HandleFunc("DELETE /carrinho/esvaziar", rateLimiter.Limit(cartHandler.ClearCart()))
	routerMux.HandleFunc("GET /produtos", productHandler.ListProducts())
	routerMux.HandleFunc("GET /produtos/{id}", productHandler.GetProduct())
	routerMux.HandleFunc("POST /produtos", productHandler.CreateProduct())
	routerMux.HandleFunc("PUT /produtos/{id}", productHandler.UpdateProduct())
	routerMux.HandleFunc("DELETE /produtos/{id}", productHandler.DeleteProduct())
	routerMux.HandleFunc("GET /health", health.Handler(healthChecker))
	routerMux.Handle("GET /metrics", metrics.Handler())

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = middleware.Logging(handler)
	handler = metrics.Middleware(handler)
	handler = otelhttp.NewHandler(handler, "sales-service")

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	// Directory service registration
	registryClient := registry.New(&cfg.Registry)
	if registryClient.Enabled() {
		if err := registryClient.Register(ctx); err != nil {
			slog.Error("Failed to register with directory service", slog.String("error", err.Error()))
			os.Exit(1)
		}

		registryClient.StartHeartbeat(ctx)
		slog.Info("Registered with directory service",
			slog.String("app", cfg.Registry.AppName),
			slog.String("registry", cfg.Registry.URL))
	}

	slog.Info("Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("Failed to start server", slog.String("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("Shutdown signal received. Preparing to stop the server...")

	if registryClient.Enabled() {
		deregCtx, deregCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := registryClient.Deregister(deregCtx); err != nil {
			slog.Error("Failed to deregister from directory service", slog.String("error", err.Error()))
		}
		deregCancel()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("Server shut down gracefully. All connections closed.")
	}
}
