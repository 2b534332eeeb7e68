package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"ercot-mcp/internal/api/handlers"
	"ercot-mcp/internal/api/middleware"
	"ercot-mcp/internal/config"
	"ercot-mcp/internal/ercot"
	"ercot-mcp/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Configure(cfg.Logging.Level, logger.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	log := logger.WithComponent("main")

	creds, err := config.LoadCredentials()
	if err != nil {
		log.WithError(err).Fatal("credentials not configured")
	}
	auth, err := ercot.NewAuthManager(creds)
	if err != nil {
		log.WithError(err).Fatal("auth manager")
	}
	client := ercot.NewClient(auth,
		ercot.WithHTTPClient(&http.Client{Timeout: cfg.HTTP.Timeout}),
		ercot.WithRateLimit(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst),
		ercot.WithRetry(cfg.HTTP.RetryMaxAttempts, cfg.HTTP.BackoffMin, cfg.HTTP.BackoffMax),
	)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	endpointHandler := handlers.NewEndpointHandler()
	dataHandler := handlers.NewDataHandler(client)
	forecastHandler := handlers.NewForecastHandler(client, cfg.Forecast)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.GET("/endpoints", endpointHandler.ListEndpoints)
		api.GET("/endpoints/:name", endpointHandler.GetEndpoint)

		api.POST("/fetch", dataHandler.FetchData)
		api.POST("/normalize", dataHandler.Normalize)

		api.POST("/forecast/netload", forecastHandler.NetLoad)
		api.POST("/forecast/dayahead", forecastHandler.DayAhead)
		api.POST("/forecast/cv", forecastHandler.CrossValidate)
	}

	handler := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)

	addr := ":" + cfg.Server.Port
	log.WithFields(logger.Fields{"addr": addr, "env": cfg.Server.Env}).Info("starting API server")
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
