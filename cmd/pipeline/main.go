// Command pipeline runs one forecast end to end from the command line and
// prints the result as JSON. Useful for smoke-testing the full flow without
// the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

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
	company := flag.String("company", "TCS", "company ticker as listed on screener.in")
	quarters := flag.Int("quarters", 2, "number of recent quarters to analyze")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	noDB := flag.Bool("no-db", false, "skip database persistence")
	providerName := flag.String("provider", "", "use this provider for every role, overriding config/models.yaml")
	flag.Parse()

	godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Printf("[FATAL] Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := prompt.LoadFromDirectory("resources"); err != nil {
		logger.Warn("failed to load prompt library, falling back to hardcoded prompts", zap.Error(err))
	}

	configData, _ := os.ReadFile("config/models.yaml")
	var agentCfg agent.Config
	yaml.Unmarshal(configData, &agentCfg)
	agentMgr := agent.NewManager(agentCfg)

	providerFor := func(role string) llm.Provider {
		if *providerName != "" {
			if p := agentMgr.GetProviderByName(*providerName); p != nil {
				return p
			}
			logger.Fatal("unknown provider", zap.String("provider", *providerName))
		}
		return agentMgr.GetProvider(role)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var repo pipeline.ForecastRepository
	if !*noDB {
		if err := store.InitDB(ctx); err != nil {
			logger.Fatal("database initialization failed", zap.Error(err))
		}
		defer store.Close()
		repo = store.NewForecastRepo()
	}

	embedder, err := llm.NewGeminiEmbedder(ctx)
	if err != nil {
		logger.Fatal("embedder initialization failed", zap.Error(err))
	}
	defer embedder.Close()

	var cache *scrape.DownloadCache
	if dir := os.Getenv("DOWNLOAD_CACHE_DIR"); dir != "" {
		cache = scrape.NewDownloadCache(dir)
	}

	orchestrator := pipeline.NewOrchestrator(
		scrape.NewScreenerSource(cache, logger),
		extract.NewExtractor(agent.NewLLMAdapter(providerFor("extraction")), logger),
		qualitative.NewAnalyzer(agent.NewLLMAdapter(providerFor("analysis")), logger),
		embedder,
		agent.NewLLMAdapter(providerFor("synthesis")),
		repo,
		logger,
	)

	result, err := orchestrator.GenerateForecast(ctx, *company, *quarters)
	if err != nil {
		logger.Fatal("forecast failed", zap.Error(err))
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal("failed to encode forecast", zap.Error(err))
	}
	fmt.Println(string(out))
}
