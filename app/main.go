package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sushihentaime/inkpost/internal/blogservice"
	"github.com/sushihentaime/inkpost/internal/common"
	"github.com/sushihentaime/inkpost/internal/mailservice"
	"github.com/sushihentaime/inkpost/internal/ratelimit"
	"github.com/sushihentaime/inkpost/internal/userservice"
)

type application struct {
	config      *Config
	logger      *slog.Logger
	userService *userservice.UserService
	blogService *blogservice.BlogService
	mailService *mailservice.MailService
	limiter     *ratelimit.Limiter
	checks      []dependencyCheck
}

func newLogger(environment string) *slog.Logger {
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func newCache(cfg *Config) (common.Cache, error) {
	switch cfg.CacheBackend {
	case "redis":
		client, err := common.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return common.NewRedisCache(client, "inkpost"), nil
	default:
		return common.NewMemoryCache(cfg.CacheTTL, 2*cfg.CacheTTL), nil
	}
}

func main() {
	logger := newLogger(os.Getenv("ENVIRONMENT"))

	// Load the configuration
	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger = newLogger(cfg.Environment)

	// Initialize the database
	dbURI := common.DatabaseURI(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	if err := common.MigrateDB(dbURI); err != nil {
		logger.Error("failed to migrate the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := common.NewDB(dbURI, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBMaxIdleTime)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	cache, err := newCache(cfg)
	if err != nil {
		logger.Error("failed to initialise the cache", slog.String("backend", cfg.CacheBackend), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cache.Close()

	// Create the URI and connect to the message broker
	URI := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.MQUser, cfg.MQPassword, cfg.MQHost, cfg.MQPort)
	broker, err := common.NewMessageBroker(URI)
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	// Setup the exchange, queue, and binding key
	err = common.SetupUserExchange(broker)
	if err != nil {
		logger.Error("failed to setup the user exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app := &application{
		config:      cfg,
		logger:      logger,
		userService: userservice.NewUserService(db, broker, logger),
		blogService: blogservice.NewBlogService(db, cache, cfg.CacheTTL, logger),
		mailService: mailservice.NewMailService(broker, cfg.MailHost, cfg.MailUser, cfg.MailPassword, cfg.MailSender, cfg.MailPort, cfg.MailRate, logger),
		checks:      []dependencyCheck{{name: "database", check: db.PingContext}, cacheCheck(cache)},
	}

	if cfg.RateLimitEnabled {
		app.limiter = ratelimit.New(cache, cfg.RateLimitRequests, cfg.RateLimitWindow)
	}

	err = app.mailService.SendWelcomeEmails()
	if err != nil {
		logger.Error("failed to start the mail consumer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = app.serve(ctx)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
