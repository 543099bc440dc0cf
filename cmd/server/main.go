package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/schoolbank/backend/docs"
	"github.com/schoolbank/backend/internal/audit"
	"github.com/schoolbank/backend/internal/config"
	"github.com/schoolbank/backend/internal/database"
	"github.com/schoolbank/backend/internal/handlers"
	mW "github.com/schoolbank/backend/internal/middleware"
	"github.com/schoolbank/backend/internal/services"
	"github.com/schoolbank/backend/internal/storage"
	"github.com/schoolbank/backend/internal/storage/memory"
	"github.com/schoolbank/backend/internal/storage/postgres"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title School Bank API
// @version 1.0
// @description Virtual checking and savings accounts, class bills and monthly statements for students
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")

	viper.BindEnv("storage.driver", "STORAGE_DRIVER")
	viper.BindEnv("server.port", "PORT")
	viper.SetDefault("storage.driver", "postgres")
	viper.SetDefault("server.port", "8080")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}
	if viper.GetString("jwt.secret_key") == "" {
		log.Fatal("JWT_SECRET_KEY must be set")
	}

	bankingCfg := config.LoadBankingConfig()

	// Initialize Swagger docs
	docs.SwaggerInfo.Host = "localhost:" + viper.GetString("server.port")
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, bankingCfg)
	defer closeStore()

	redisClient := database.InitRedis(ctx, database.GetRedisConfig())
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize services
	auditor := audit.NewAuditLogger()
	retrier := services.NewRetrier(bankingCfg)
	ledger := services.NewLedger()

	accountService := services.NewAccountService(store, ledger, retrier, auditor)
	transferService := services.NewTransferService(store, ledger, retrier,
		services.NewIdempotencyCache(redisClient, bankingCfg.IdempotencyTTL), auditor)
	billService := services.NewBillService(store, retrier)
	paymentService := services.NewBillPaymentService(store, ledger, retrier, auditor)
	statementService := services.NewStatementService(store, retrier, auditor)
	statementService.SetSettleDelay(bankingCfg.StatementSettleDelay)
	qrService := services.NewQRService(store, redisClient, bankingCfg.QRCodeTTL)
	iso20022Service := services.NewISO20022Service(store, bankingCfg.Currency, bankingCfg.InstitutionBIC)

	worker := services.NewStatementWorker(statementService, redisClient, bankingCfg)
	go worker.Run(ctx)

	auth := mW.NewAuthenticatorFromConfig(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", handlers.IdempotencyKeyHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	handlers.Mount(r, auth, handlers.Handlers{
		Accounts:   handlers.NewAccountHandler(accountService),
		Transfers:  handlers.NewTransferHandler(transferService, iso20022Service),
		Statements: handlers.NewStatementHandler(statementService),
		Bills:      handlers.NewBillHandler(billService, paymentService),
		QR:         handlers.NewQRHandler(qrService),
	})

	port := viper.GetString("server.port")

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}

// openStore connects to Postgres and applies migrations, or falls back to the
// in-memory store when STORAGE_DRIVER=memory.
func openStore(ctx context.Context, cfg *config.BankingConfig) (storage.Store, func()) {
	if viper.GetString("storage.driver") == "memory" {
		log.Println("[STORAGE] Using in-memory store; data is lost on restart")
		return memory.New(cfg.LockTimeout), func() {}
	}

	db, err := database.InitDB(ctx, database.GetConfig())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	return postgres.NewStore(db, cfg.LockTimeout), func() { db.Close() }
}
