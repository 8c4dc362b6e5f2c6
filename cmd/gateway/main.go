package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dileep-u-k/weather-assistant/internal/agent"
	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/metrics"
	"github.com/dileep-u-k/weather-assistant/internal/tools"
	"github.com/dileep-u-k/weather-assistant/internal/version"
)

// main is the composition root: it loads configuration, builds every shared
// service once and starts the server.
func main() {
	setupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("GIN_MODE"))

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}
	setupLogger(cfg.LogLevel, cfg.GinMode)

	info := version.Get()
	log.Info().
		Str("version", info.String()).
		Str("commit", info.GitCommit).
		Str("provider", cfg.LLM.Provider).
		Str("model", cfg.LLM.Model).
		Msg("starting weather assistant")

	ctx := context.Background()

	client, closeClient, err := newLLMClient(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create LLM client")
	}
	defer closeClient()

	toolManager := newToolManager(cfg, log.Logger)
	m := metrics.Global()

	assistant := agent.New(client, toolManager, agent.Config{
		Model:         cfg.LLM.Model,
		Temperature:   cfg.LLM.Temperature,
		MaxIterations: cfg.Agent.MaxIterations,
		SystemPrompt:  cfg.Agent.SystemPrompt,
	}, agent.WithLogger(log.Logger), agent.WithMetrics(m))

	var profiler *llm.Profiler
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, usage profiling disabled")
		} else {
			profiler = llm.NewProfiler(rdb, log.Logger)
			log.Info().Str("addr", cfg.RedisAddr).Msg("usage profiling enabled")
		}
	}

	handler := NewGatewayHandler(assistant, profiler, m, log.Logger)

	gin.SetMode(ginMode(cfg.GinMode))
	engine := newRouter(handler, log.Logger, promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	runServerWithGracefulShutdown(srv)
}

func newLLMClient(ctx context.Context, cfg *AppConfig) (llm.LLMClient, func(), error) {
	switch cfg.LLM.Provider {
	case ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg.LLM.GeminiAPIKey)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close Gemini client")
			}
		}, nil
	default:
		client := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Timeout: cfg.LLM.Timeout,
		})
		return client, func() {}, nil
	}
}

func newToolManager(cfg *AppConfig, logger zerolog.Logger) *tools.ToolManager {
	manager := tools.NewToolManager()
	manager.Register(tools.NewWeatherTool(
		tools.WithWeatherBaseURL(cfg.Weather.BaseURL),
		tools.WithWeatherTimeout(cfg.Weather.Timeout),
		tools.WithWeatherLogger(logger),
	))
	logger.Info().Int("tools", manager.ToolCount()).Msg("tool manager initialized")
	return manager
}

// newRouter builds the HTTP surface. CORS is open to every origin.
func newRouter(h *GatewayHandler, logger zerolog.Logger, metricsHandler http.Handler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		MaxAge:          12 * time.Hour,
	}))

	engine.GET("/", h.HandleRoot)
	engine.POST("/chat", h.HandleChat)
	engine.GET("/health", h.HandleHealth)
	engine.GET("/stats", h.HandleStats)
	engine.GET("/metrics", gin.WrapH(metricsHandler))
	return engine
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	logger = logger.With().Str("component", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

func setupLogger(level, mode string) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(parseLogLevel(level))
	if mode == gin.ReleaseMode {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func ginMode(mode string) string {
	switch mode {
	case gin.ReleaseMode, gin.TestMode:
		return mode
	default:
		return gin.DebugMode
	}
}

func runServerWithGracefulShutdown(srv *http.Server) {
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
		return
	}
	log.Info().Msg("server exited")
}
