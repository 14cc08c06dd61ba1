package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	apiconfig "financial_forecast/pkg/api/config"
	"financial_forecast/pkg/api/forecast"
	"financial_forecast/pkg/core/agent"
	"financial_forecast/pkg/core/extract"
	"financial_forecast/pkg/core/llm"
	"financial_forecast/pkg/core/pipeline"
	"financial_forecast/pkg/core/prompt"
	"financial_forecast/pkg/core/qualitative"
	"financial_forecast/pkg/core/scrape"
	"financial_forecast/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("[FATAL] Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Initialize Prompt Library
	// Determine resources path (relative to executable or working directory)
	resourcesPath := "resources"
	if _, err := os.Stat(resourcesPath); os.IsNotExist(err) {
		// Try from executable directory
		exePath, _ := os.Executable()
		resourcesPath = filepath.Join(filepath.Dir(exePath), "resources")
	}
	if err := prompt.LoadFromDirectory(resourcesPath); err != nil {
		logger.Warn("failed to load prompt library, falling back to hardcoded prompts", zap.Error(err))
	} else {
		logger.Info("prompt library loaded", zap.Int("count", prompt.Get().Count()), zap.String("path", resourcesPath))
	}

	// Initialize manager from config
	configData, _ := os.ReadFile("config/models.yaml")
	var agentCfg agent.Config
	yaml.Unmarshal(configData, &agentCfg)
	agentMgr := agent.NewManager(agentCfg)

	ctx := context.Background()

	if err := store.InitDB(ctx); err != nil {
		logger.Fatal("database initialization failed", zap.Error(err))
	}
	defer store.Close()

	embedder, err := llm.NewGeminiEmbedder(ctx)
	if err != nil {
		logger.Fatal("embedder initialization failed", zap.Error(err))
	}
	defer embedder.Close()

	var cache *scrape.DownloadCache
	if dir := os.Getenv("DOWNLOAD_CACHE_DIR"); dir != "" {
		cache = scrape.NewDownloadCache(dir)
	}

	extractProvider := agent.NewLLMAdapter(agentMgr.GetProvider("extraction"))
	analysisProvider := agent.NewLLMAdapter(agentMgr.GetProvider("analysis"))
	synthesisProvider := agent.NewLLMAdapter(agentMgr.GetProvider("synthesis"))

	repo := store.NewForecastRepo()
	orchestrator := pipeline.NewOrchestrator(
		scrape.NewScreenerSource(cache, logger),
		extract.NewExtractor(extractProvider, logger),
		qualitative.NewAnalyzer(analysisProvider, logger),
		embedder,
		synthesisProvider,
		repo,
		logger,
	)

	handler := forecast.NewHandler(orchestrator, repo, logger)
	http.HandleFunc("/", handler.HandleRoot)
	http.HandleFunc("/health", handler.HandleHealth)
	http.HandleFunc("/forecast", handler.HandleForecast)
	http.HandleFunc("/history", handler.HandleHistory)

	configHandler := apiconfig.NewHandler(agentMgr)
	http.HandleFunc("/config", configHandler.HandleConfig)
	http.HandleFunc("/config/switch", configHandler.HandleSwitch)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("API server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Fatal("server failed to start", zap.Error(err))
	}
}
