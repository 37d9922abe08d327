package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config структура конфигурации сервиса
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Overpass OverpassConfig `yaml:"overpass"`
	Score    ScoreConfig    `yaml:"score"`
	LLM      LLMConfig      `yaml:"llm"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type GeocoderConfig struct {
	BaseURL              string  `yaml:"base_url"`
	UserAgent            string  `yaml:"user_agent"`
	TimeoutSeconds       int     `yaml:"timeout_seconds"`
	FallbackRadiusMeters float64 `yaml:"fallback_radius_meters"`
	AmbiguityMargin      float64 `yaml:"ambiguity_margin"`
}

type OverpassConfig struct {
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxParallel    int    `yaml:"max_parallel"`
	MaxPerCategory int    `yaml:"max_per_category"`
}

type ScoreConfig struct {
	IdealDistanceMeters float64            `yaml:"ideal_distance_meters"`
	MaxDistanceMeters   float64            `yaml:"max_distance_meters"`
	Weights             map[string]float64 `yaml:"weights"`
}

// LLMConfig настройки сервиса генерации текста
type LLMConfig struct {
	BaseURL         string `yaml:"base_url"`
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	MaxSummaryChars int    `yaml:"max_summary_chars"`
	RPM             int    `yaml:"rpm"`
}

type CacheConfig struct {
	PostgresURL string `yaml:"postgres_url"`
	TTLMinutes  int    `yaml:"ttl_minutes"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns built-in defaults suitable for local use.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Geocoder: GeocoderConfig{
			BaseURL:              "https://nominatim.openstreetmap.org",
			UserAgent:            "AreaPulse/1.0",
			TimeoutSeconds:       10,
			FallbackRadiusMeters: 1000,
			AmbiguityMargin:      0.1,
		},
		Overpass: OverpassConfig{
			Endpoint:       "https://overpass-api.de/api/interpreter",
			TimeoutSeconds: 30,
			MaxParallel:    4,
			MaxPerCategory: 50,
		},
		LLM: LLMConfig{
			Model:           "gpt-4o-mini",
			TimeoutSeconds:  20,
			MaxSummaryChars: 1200,
			RPM:             30,
		},
		Cache: CacheConfig{TTLMinutes: 60},
		Log:   LogConfig{Level: "info"},
	}
}

// LoadConfig reads the YAML config at path over the defaults. A missing file
// yields the defaults without error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
