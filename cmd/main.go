package main

import (
	"area_service/internal/api"
	"area_service/internal/config"
	"area_service/internal/core"
	"area_service/internal/domain/model"
	"area_service/internal/domain/repository"
	"area_service/internal/infrastructure/narrative"
	"area_service/internal/logger"
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Инициализация логгера
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	// Инициализация репозиториев
	geocoder := repository.NewNominatimRepository(
		cfg.Geocoder.BaseURL,
		cfg.Geocoder.UserAgent,
		time.Duration(cfg.Geocoder.TimeoutSeconds)*time.Second,
		cfg.Geocoder.FallbackRadiusMeters,
		cfg.Geocoder.AmbiguityMargin,
	)
	overpassRepo := repository.NewOverpassRepository(
		cfg.Overpass.Endpoint,
		time.Duration(cfg.Overpass.TimeoutSeconds)*time.Second,
		cfg.Overpass.MaxParallel,
		cfg.Overpass.MaxPerCategory,
	)

	// Опциональный кеш результатов анализа
	var cache core.ResultCache
	if connStr := firstNonEmpty(os.Getenv("POSTGRES_URL"), cfg.Cache.PostgresURL); connStr != "" {
		analysisCache, err := repository.NewAnalysisCache(connStr, time.Duration(cfg.Cache.TTLMinutes)*time.Minute)
		if err != nil {
			logger.Log.Warnf("analysis cache disabled: %v", err)
		} else if err := analysisCache.EnsureSchema(context.Background()); err != nil {
			logger.Log.Warnf("analysis cache disabled: %v", err)
		} else {
			defer analysisCache.Close()
			cache = analysisCache
		}
	}

	// Клиент генерации текста; без него всегда используется локальное резюме
	var narrativeClient model.NarrativeClient
	if apiKey := firstNonEmpty(os.Getenv("OPENAI_API_KEY"), cfg.LLM.APIKey); apiKey != "" {
		client, err := narrative.NewOpenAIClient(context.Background(), cfg.LLM.BaseURL, apiKey, cfg.LLM.Model, cfg.LLM.RPM)
		if err != nil {
			logger.Log.Warnf("narrative client disabled: %v", err)
		} else {
			narrativeClient = client
		}
	}

	// Создание сервиса анализа
	builder := core.NewNarrativeBuilder(
		narrativeClient,
		time.Duration(cfg.LLM.TimeoutSeconds)*time.Second,
		cfg.LLM.MaxSummaryChars,
	)
	service := core.NewAnalysisService(geocoder, overpassRepo, builder, core.NewProximityScorer(scoreConfig(cfg)), cache)

	// Настройка HTTP-обработчиков
	handler := api.NewHandler(service)
	http.HandleFunc("/api/analyze-area", handler.AnalyzeArea)

	// Запуск сервера
	logger.Log.Infof("Starting server on %s", cfg.Server.Addr)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, nil))
}

func scoreConfig(cfg *config.Config) core.ScoreConfig {
	sc := core.DefaultScoreConfig()
	if cfg.Score.IdealDistanceMeters > 0 {
		sc.IdealDistance = cfg.Score.IdealDistanceMeters
	}
	if cfg.Score.MaxDistanceMeters > 0 {
		sc.MaxDistance = cfg.Score.MaxDistanceMeters
	}
	for name, weight := range cfg.Score.Weights {
		sc.Weights[model.Category(name)] = weight
	}
	return sc
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
