package di

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/wire"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lmittmann/tint"

	"github.com/accordhq/backend/internal/config"
	"github.com/accordhq/backend/internal/domain"
	"github.com/accordhq/backend/internal/handler"
	"github.com/accordhq/backend/internal/middleware"
	"github.com/accordhq/backend/internal/realtime"
	"github.com/accordhq/backend/internal/repository"
	"github.com/accordhq/backend/internal/secret"
	"github.com/accordhq/backend/internal/server"
	"github.com/accordhq/backend/internal/token"
)

const Version = "0.1.0"

var ConfigSet = wire.NewSet(
	config.Load,
)

var LoggerSet = wire.NewSet(
	ProvideLogger,
)

var DatabaseSet = wire.NewSet(
	ProvideDatabase,
)

var RepositorySet = wire.NewSet(
	repository.NewPostgresUserRepository,
	wire.Bind(new(domain.UserRepository), new(*repository.PostgresUserRepository)),
	repository.NewPostgresSessionRepository,
	wire.Bind(new(domain.SessionRepository), new(*repository.PostgresSessionRepository)),
	repository.NewPostgresNotificationSettingRepository,
	wire.Bind(new(domain.NotificationSettingRepository), new(*repository.PostgresNotificationSettingRepository)),
	repository.NewPostgresTicketRepository,
	wire.Bind(new(domain.TicketRepository), new(*repository.PostgresTicketRepository)),
)

var TokenSet = wire.NewSet(
	ProvideIssuer,
	ProvideVerifier,
	ProvideEncryptor,
)

var RealtimeSet = wire.NewSet(
	realtime.NewAuthenticator,
	realtime.NewPresence,
	realtime.NewRooms,
	realtime.NewDispatcher,
	ProvideGateway,
)

var HandlerSet = wire.NewSet(
	ProvideHealthHandler,
	ProvideAuthHandler,
	ProvideSettingsHandler,
	ProvideNotificationHandler,
	ProvideSupportHandler,
	ProvideEventsHandler,
	handler.NewSwaggerHandler,
)

var MiddlewareSet = wire.NewSet(
	ProvideAuthMiddleware,
)

var ServerSet = wire.NewSet(
	ProvideServerConfig,
	server.New,
)

var AppSet = wire.NewSet(
	ConfigSet,
	LoggerSet,
	DatabaseSet,
	RepositorySet,
	TokenSet,
	RealtimeSet,
	HandlerSet,
	MiddlewareSet,
	ServerSet,
	wire.Struct(new(Application), "*"),
)

func ProvideLogger(cfg *config.Config) *slog.Logger {
	var logLevel slog.Level
	switch cfg.Server.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var h slog.Handler
	if cfg.IsDevelopment() {
		h = tint.NewHandler(os.Stdout, &tint.Options{Level: logLevel})
	} else {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	return slog.New(h)
}

func ProvideDatabase(cfg *config.Config) (*sql.DB, func(), error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cleanup := func() {
		db.Close()
	}

	return db, cleanup, nil
}

func ProvideIssuer(cfg *config.Config) *token.Issuer {
	return token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
}

func ProvideVerifier(cfg *config.Config) *token.Verifier {
	return token.NewVerifier(cfg.Auth.JWTSecret)
}

func ProvideEncryptor(cfg *config.Config) (*secret.Encryptor, error) {
	return secret.NewEncryptor(cfg.Auth.EncryptionKey)
}

func ProvideGateway(
	auth *realtime.Authenticator,
	presence *realtime.Presence,
	rooms *realtime.Rooms,
	tickets domain.TicketRepository,
	users domain.UserRepository,
	logger *slog.Logger,
) *realtime.Gateway {
	return realtime.NewGateway(realtime.GatewayConfig{
		Authenticator: auth,
		Presence:      presence,
		Rooms:         rooms,
		Tickets:       tickets,
		Users:         users,
		Logger:        logger,
	})
}

func ProvideHealthHandler(presence *realtime.Presence) *handler.HealthHandler {
	return handler.NewHealthHandler(Version, presence)
}

func ProvideAuthHandler(
	cfg *config.Config,
	users domain.UserRepository,
	sessions domain.SessionRepository,
	issuer *token.Issuer,
	encryptor *secret.Encryptor,
	logger *slog.Logger,
) *handler.AuthHandler {
	return handler.NewAuthHandler(handler.AuthHandlerConfig{
		UserRepo:          users,
		SessionRepo:       sessions,
		Issuer:            issuer,
		Encryptor:         encryptor,
		Logger:            logger,
		SessionCookieName: cfg.Auth.SessionCookieName,
		TokenTTL:          cfg.Auth.TokenTTL,
		SecureCookie:      cfg.Auth.SecureCookie,
	})
}

func ProvideSettingsHandler(
	users domain.UserRepository,
	encryptor *secret.Encryptor,
	logger *slog.Logger,
) *handler.SettingsHandler {
	return handler.NewSettingsHandler(handler.SettingsHandlerConfig{
		UserRepo:  users,
		Encryptor: encryptor,
		Logger:    logger,
	})
}

func ProvideNotificationHandler(
	settings domain.NotificationSettingRepository,
	dispatcher *realtime.Dispatcher,
	logger *slog.Logger,
) *handler.NotificationHandler {
	return handler.NewNotificationHandler(handler.NotificationHandlerConfig{
		SettingsRepo: settings,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
}

func ProvideSupportHandler(
	cfg *config.Config,
	tickets domain.TicketRepository,
	rooms *realtime.Rooms,
	dispatcher *realtime.Dispatcher,
	logger *slog.Logger,
) *handler.SupportHandler {
	return handler.NewSupportHandler(handler.SupportHandlerConfig{
		TicketRepo: tickets,
		Rooms:      rooms,
		Dispatcher: dispatcher,
		CacheTTL:   cfg.Cache.TTL,
		Logger:     logger,
	})
}

func ProvideEventsHandler(presence *realtime.Presence, logger *slog.Logger) *handler.EventsHandler {
	return handler.NewEventsHandler(handler.EventsHandlerConfig{
		Presence: presence,
		Logger:   logger,
	})
}

func ProvideAuthMiddleware(
	cfg *config.Config,
	auth *realtime.Authenticator,
	users domain.UserRepository,
	logger *slog.Logger,
) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(middleware.AuthMiddlewareConfig{
		Authenticator:     auth,
		UserRepo:          users,
		Logger:            logger,
		SessionCookieName: cfg.Auth.SessionCookieName,
	})
}

func ProvideServerConfig(cfg *config.Config) server.Config {
	return server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
		CorsOrigins:  cfg.Server.FrontendURL,
	}
}

type Application struct {
	Config              *config.Config
	Logger              *slog.Logger
	DB                  *sql.DB
	Sessions            domain.SessionRepository
	Server              *server.Server
	AuthMiddleware      *middleware.AuthMiddleware
	Gateway             *realtime.Gateway
	HealthHandler       *handler.HealthHandler
	AuthHandler         *handler.AuthHandler
	SettingsHandler     *handler.SettingsHandler
	NotificationHandler *handler.NotificationHandler
	SupportHandler      *handler.SupportHandler
	EventsHandler       *handler.EventsHandler
	SwaggerHandler      *handler.SwaggerHandler
}
