package server

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mohammad-safakhou/redditdig/config"
	"github.com/mohammad-safakhou/redditdig/internal/agent"
	"github.com/mohammad-safakhou/redditdig/internal/analysis"
	"github.com/mohammad-safakhou/redditdig/internal/reddit"
	"github.com/mohammad-safakhou/redditdig/internal/strategy"
	"github.com/mohammad-safakhou/redditdig/internal/telemetry"
	"github.com/mohammad-safakhou/redditdig/provider"
)

// Run wires the full research pipeline and serves HTTP on the configured
// address. It blocks until the server stops.
func Run(cfg *config.Config) error {
	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return fmt.Errorf("llm provider init: %w", err)
	}
	cache, err := reddit.NewCache(cfg.Cache)
	if err != nil {
		return fmt.Errorf("cache init: %w", err)
	}
	tel := telemetry.NewTelemetry(cfg.Telemetry)
	fetcher := reddit.NewFetcher(cfg.Reddit, cache, tel)
	strategist := strategy.NewGenerator(cfg.Strategy, llm, cfg.LLM.Routing.ModelFor("strategy"))
	engine := analysis.NewEngine(cfg.Analysis, llm, cfg.LLM.Routing.ModelFor("analysis"))
	loop := agent.NewLoop(cfg.Agent, llm, cfg.LLM.Routing.ModelFor("decision"), fetcher, engine, tel)

	h := &Handler{
		loop:       loop,
		strategist: strategist,
		fetcher:    fetcher,
		engine:     engine,
		llm:        llm,
		synthModel: cfg.LLM.Routing.ModelFor("synthesis"),
		tel:        tel,
		timeout:    cfg.General.MaxProcessingTime,
		maxPosts:   cfg.Agent.MaxPostsPerSearch,
		logger:     log.New(log.Writer(), "[SERVER] ", log.LstdFlags),
	}

	e := newEcho(h, tel)
	log.Printf("listening on %s", cfg.Server.Address)
	return e.Start(cfg.Server.Address)
}

// newEcho assembles middleware, error handling and routes around the handler.
// Split from Run so tests can drive the full router without a config file.
func newEcho(h *Handler, tel *telemetry.Telemetry) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := "Failed to process request"
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			tel.RecordRequest(c.Path(), strconv.Itoa(status))
			return err
		}
	})

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(tel.Handler()))
	e.POST("/chat", h.Chat)
	e.POST("/summarize", h.Summarize)
	return e
}
