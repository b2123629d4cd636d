package controller

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/venkmine/proxx/internal/config"
	"github.com/venkmine/proxx/internal/controller/api"
	"github.com/venkmine/proxx/internal/controller/web"
	"github.com/venkmine/proxx/internal/core/coordinator"
	"github.com/venkmine/proxx/internal/core/engine/renderd"
	"github.com/venkmine/proxx/internal/core/event"
	"github.com/venkmine/proxx/internal/core/process"
	"github.com/venkmine/proxx/internal/database"
)

func Run(ctx context.Context, cfg *config.Config) error {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log.Debug().Str("level", cfg.Logging.Level).Msg("log level configured")

	pool, err := database.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConnections)
	if err != nil {
		return fmt.Errorf("database connect: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// Auto-generate the JWT secret on first boot; explicit config wins.
	jwtSecret, err := ensureSetting(ctx, pool, "jwt_secret", 32)
	if err != nil {
		return fmt.Errorf("jwt secret: %w", err)
	}
	if cfg.Auth.JWTSecret != "" {
		jwtSecret = cfg.Auth.JWTSecret
	}

	adminPassword, err := ensureAdmin(ctx, pool, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	if err != nil {
		return fmt.Errorf("admin setup: %w", err)
	}

	bus := event.NewBus()
	client := renderd.NewClient(cfg.Engine.RPCURL, cfg.Engine.RPCSecret)

	var super *process.Supervisor
	if cfg.Engine.Managed {
		daemon := renderd.NewDaemon(cfg.Engine.Binary, cfg.Engine.DataDir, cfg.Engine.RPCListen, cfg.Engine.RPCSecret, client)
		super = process.NewSupervisor(daemon)
		if err := super.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("managed renderd start failed, continuing against configured RPC URL")
		} else {
			go super.Watch(ctx)
		}
	}

	coord := coordinator.New(client, bus, coordinator.Config{
		ActiveInterval:     parseDurationOr(cfg.Poll.ActiveInterval, 2*time.Second),
		IdleInterval:       parseDurationOr(cfg.Poll.IdleInterval, 10*time.Second),
		DetailInterval:     parseDurationOr(cfg.Poll.DetailInterval, 3*time.Second),
		MinDisplayDuration: parseDurationOr(cfg.Display.MinRunning, 1500*time.Millisecond),
	})

	archiver := database.NewArchiver(pool, bus)
	archiver.SetupSubscribers()

	coordCtx, coordCancel := context.WithCancel(context.Background())
	go coord.Run(coordCtx)

	jwtExpiry, err := time.ParseDuration(cfg.Auth.JWTExpiry)
	if err != nil {
		jwtExpiry = 24 * time.Hour
	}

	// One HTTP server carries the API, the dashboard, and SSE.
	e := echo.New()
	e.HideBanner = true

	api.SetupRouter(e, api.RouterConfig{
		DB:        pool,
		JWTSecret: jwtSecret,
		JWTExpiry: jwtExpiry,
		Coord:     coord,
		Engine:    client,
		Bus:       bus,
	})

	webHandler := web.NewHandler(pool, coord, jwtSecret)
	webHandler.RegisterRoutes(e)

	printBanner(cfg, adminPassword)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	coordCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	if super != nil {
		_ = super.Stop(shutdownCtx)
	}
	return nil
}

func ensureSetting(ctx context.Context, pool *pgxpool.Pool, key string, byteLen int) (string, error) {
	queries := database.New(pool)
	setting, err := queries.GetSetting(ctx, key)
	if err == nil && setting.Value != "" {
		return setting.Value, nil
	}

	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	value := hex.EncodeToString(b)
	if err := queries.UpsertSetting(ctx, database.UpsertSettingParams{Key: key, Value: value}); err != nil {
		return "", err
	}
	return value, nil
}

func ensureAdmin(ctx context.Context, pool *pgxpool.Pool, username, password string) (string, error) {
	queries := database.New(pool)
	count, err := queries.GetUserCount(ctx)
	if err != nil {
		return "", err
	}
	if count > 0 {
		return "", nil
	}

	if password == "" {
		b := make([]byte, 8)
		rand.Read(b)
		password = hex.EncodeToString(b)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}

	_, err = queries.CreateUser(ctx, database.CreateUserParams{
		Username: username,
		Password: string(hash),
		Role:     "admin",
	})
	if err != nil {
		return "", err
	}
	return password, nil
}

// parseDurationOr parses a config duration string, falling back when the
// value is empty or malformed.
func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func printBanner(cfg *config.Config, adminPassword string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println("  Proxx controller started")
	fmt.Println()
	if adminPassword != "" {
		fmt.Println("  Admin credentials (save these, shown only once):")
		fmt.Printf("    Username: %s\n", cfg.Auth.AdminUsername)
		fmt.Printf("    Password: %s\n", adminPassword)
		fmt.Println()
	}
	fmt.Printf("  HTTP:      http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  Dashboard: http://%s:%d/web/\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  Engine:    %s\n", cfg.Engine.RPCURL)
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println()
}
