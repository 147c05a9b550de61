package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/analytics"
	"github.com/solatech/solar-commerce/internal/auth"
	authpg "github.com/solatech/solar-commerce/internal/auth/postgres"
	"github.com/solatech/solar-commerce/internal/cart"
	cartpg "github.com/solatech/solar-commerce/internal/cart/postgres"
	"github.com/solatech/solar-commerce/internal/catalog"
	catalogpg "github.com/solatech/solar-commerce/internal/catalog/postgres"
	"github.com/solatech/solar-commerce/internal/core/events"
	"github.com/solatech/solar-commerce/internal/mpesagateway"
	"github.com/solatech/solar-commerce/internal/order"
	orderpg "github.com/solatech/solar-commerce/internal/order/postgres"
	"github.com/solatech/solar-commerce/internal/payment"
	paymentpg "github.com/solatech/solar-commerce/internal/payment/postgres"
	"github.com/solatech/solar-commerce/internal/ticket"
	ticketpg "github.com/solatech/solar-commerce/internal/ticket/postgres"
	"github.com/solatech/solar-commerce/internal/transport"
	"github.com/solatech/solar-commerce/internal/transport/rest"
	"github.com/solatech/solar-commerce/internal/user"
	userpg "github.com/solatech/solar-commerce/internal/user/postgres"
	"github.com/solatech/solar-commerce/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm rides on the already-pooled pgx connection so migrations, health
	// checks and analytics all share one pool.
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	eventBus := events.NewEventBus(lg)

	// payment flow
	gatewayClient := mpesagateway.NewClient(mpesagateway.Config{
		BaseURL:         config.Mpesa.BaseURL,
		ConsumerKey:     config.Mpesa.ConsumerKey,
		ConsumerSecret:  config.Mpesa.ConsumerSecret,
		ShortCode:       config.Mpesa.ShortCode,
		PassKey:         config.Mpesa.PassKey,
		CallbackURL:     config.Mpesa.CallbackURL,
		AccountPrefix:   config.Mpesa.AccountPrefix,
		TransactionDesc: config.Mpesa.TransactionDesc,
		RequestTimeout:  config.Mpesa.RequestTimeout,
		TokenExpirySkew: config.Mpesa.TokenExpirySkew,
	}, lg)

	transactionRepo := paymentpg.NewTransactionRepository(gormDB)
	paymentService := payment.NewService(transactionRepo, gatewayClient, eventBus, lg)
	paymentHandler := payment.NewHandler(paymentService, lg)
	webhookHandler := payment.NewWebhookHandler(transport.NewBaseHandler(lg), paymentService, lg)

	// identity
	tokenGen := auth.NewJWTTokenGenerator(config.Security.AccessTokenSecret, config.Security.RefreshTokenSecret)
	authService := auth.NewService(authpg.NewRepository(gormDB), tokenGen)
	authHandler := auth.NewHandler(authService)
	roleAuth := auth.NewRoleAuthorization(lg)

	userService := user.NewService(userpg.NewUserRepository(gormDB))
	userHandler := user.NewHandler(userService)

	// storefront
	catalogRepo := catalogpg.NewProductRepository(gormDB)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	cartService := cart.NewService(cartpg.NewCartRepository(gormDB), catalogService)
	cartHandler := cart.NewHandler(cartService)

	orderRepo := orderpg.NewOrderRepository(gormDB)
	orderService := order.NewService(orderRepo, cartService, catalogRepo, paymentService, lg)
	orderHandler := order.NewHandler(orderService)

	order.NewEventHandler(orderRepo, lg).RegisterEventHandlers(eventBus)

	// support desk
	ticketService := ticket.NewService(ticketpg.NewTicketRepository(gormDB))
	ticketHandler := ticket.NewHandler(ticketService)

	analyticsHandler := analytics.NewHandler(analytics.NewService(db))

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, rest.Handlers{
		Auth:      authHandler,
		Roles:     roleAuth,
		User:      userHandler,
		Catalog:   catalogHandler,
		Cart:      cartHandler,
		Order:     orderHandler,
		Payment:   paymentHandler,
		Webhook:   webhookHandler,
		Ticket:    ticketHandler,
		Analytics: analyticsHandler,
	}, splitOrigins(config.Server.AllowedOrigins), lg)

	return &Dependencies{
		Config: config,
		Logger: lg,
		DB:     db,
		Router: router,
	}, nil
}

func splitOrigins(raw string) []string {
	if raw == "" || raw == "*" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
