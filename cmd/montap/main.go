package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/jonpedu/montap/internal/api"
	"github.com/jonpedu/montap/internal/auth"
	"github.com/jonpedu/montap/internal/catalog"
	"github.com/jonpedu/montap/internal/flow"
	"github.com/jonpedu/montap/internal/genai"
	"github.com/jonpedu/montap/internal/geo"
	"github.com/jonpedu/montap/internal/recommend"
	"github.com/jonpedu/montap/internal/store"
	"github.com/jonpedu/montap/internal/util"
	"github.com/jonpedu/montap/internal/weather"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Montap state data
	DefaultStateDir = "/var/lib/montap"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "montap.db"
	// DefaultAPIAddr is the default API listen address
	DefaultAPIAddr = ":8080"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	if err := run(flags); err != nil {
		slog.Error("Montap failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Montap exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	RedisAddr   string
	OpenAIKey   string
	OpenAIModel string
	WeatherKey  string
	JWTSecret   string
	APIAddr     string
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dbDSN       *string
	redisAddr   *string
	openaiKey   *string
	openaiModel *string
	weatherKey  *string
	jwtSecret   *string
	apiAddr     *string
}

// initializeLogger sets up structured logging. Debug level by default;
// MONTAP_DEBUG=false raises it to Info.
func initializeLogger() {
	level := slog.LevelDebug
	if !util.ParseBoolEnv("MONTAP_DEBUG", true) {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL: util.GetEnv("DATABASE_URL", ""),
		StateDir:    util.GetEnv("MONTAP_STATE_DIR", DefaultStateDir),
		RedisAddr:   util.GetEnv("REDIS_ADDR", ""),
		OpenAIKey:   util.GetEnv("OPENAI_API_KEY", ""),
		OpenAIModel: util.GetEnv("OPENAI_MODEL", ""),
		WeatherKey:  util.GetEnv("OPENWEATHER_API_KEY", ""),
		JWTSecret:   util.GetEnv("JWT_SECRET", ""),
		APIAddr:     util.GetEnv("API_ADDR", DefaultAPIAddr),
	}

	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"MONTAP_STATE_DIR", config.StateDir,
		"REDIS_ADDR_SET", config.RedisAddr != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"OPENWEATHER_API_KEY_SET", config.WeatherKey != "",
		"JWT_SECRET_SET", config.JWTSecret != "",
		"API_ADDR", config.APIAddr)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for Montap data (overrides $MONTAP_STATE_DIR)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN, SQLite path or postgres:// URL (overrides $DATABASE_URL)"),
		redisAddr:   flag.String("redis-addr", config.RedisAddr, "Redis address for session storage (overrides $REDIS_ADDR)"),
		openaiKey:   flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		openaiModel: flag.String("openai-model", config.OpenAIModel, "OpenAI chat model (overrides $OPENAI_MODEL)"),
		weatherKey:  flag.String("openweather-api-key", config.WeatherKey, "OpenWeatherMap API key (overrides $OPENWEATHER_API_KEY)"),
		jwtSecret:   flag.String("jwt-secret", config.JWTSecret, "secret for signing session tokens (overrides $JWT_SECRET)"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"redisAddr_set", *flags.redisAddr != "",
		"openaiKeySet", *flags.openaiKey != "",
		"weatherKeySet", *flags.weatherKey != "",
		"apiAddr", *flags.apiAddr)

	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if !strings.Contains(*flags.dbDSN, "postgres://") && !strings.Contains(*flags.dbDSN, "host=") {
		stateDir := filepath.Dir(*flags.dbDSN)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			return err
		}
		slog.Debug("State directory ready", "state_dir", stateDir)
	}
	return nil
}

// newStore selects the durable store backend from the DSN.
func newStore(dsn string) (store.Store, error) {
	if strings.Contains(dsn, "postgres://") || strings.Contains(dsn, "host=") {
		slog.Info("Using PostgreSQL store")
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	slog.Info("Using SQLite store", "path", dsn)
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

// newSessionRepository selects Redis when configured and falls back to memory.
func newSessionRepository(redisAddr string) store.SessionRepository {
	if redisAddr == "" {
		slog.Warn("No REDIS_ADDR configured, sessions are kept in memory and lost on restart")
		return store.NewInMemorySessionRepository()
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	slog.Info("Using Redis session repository", "addr", redisAddr)
	return store.NewRedisSessionRepository(rdb, store.DefaultSessionTTL)
}

func run(flags Flags) error {
	st, err := newStore(*flags.dbDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions := newSessionRepository(*flags.redisAddr)

	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	slog.Info("Catalog loaded", "components", cat.Len())

	genaiOpts := []genai.Option{genai.WithAPIKey(*flags.openaiKey)}
	if *flags.openaiModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.openaiModel))
	}
	ai, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return err
	}

	var weatherSvc flow.WeatherService
	if *flags.weatherKey != "" {
		weatherSvc = weather.NewClient(*flags.weatherKey, "")
	} else {
		slog.Warn("No OPENWEATHER_API_KEY configured, climate enrichment disabled")
	}

	secret := *flags.jwtSecret
	if secret == "" {
		slog.Warn("No JWT_SECRET configured, using an ephemeral secret; tokens will not survive restarts")
		secret = time.Now().Format(time.RFC3339Nano)
	}

	server := api.NewServer(
		flow.NewManager(sessions, ai, geo.NewClient(""), weatherSvc),
		recommend.NewRequester(ai, cat),
		auth.NewService(st, secret),
		auth.NewGate(sessions),
		st,
		cat,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping Montap", "addr", *flags.apiAddr)
	return server.Run(ctx, *flags.apiAddr)
}
