package cfg

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	ModelPath         string
	PositiveThreshold float64
	DataPath          string
	MetricsPort       int
	ServerPort        int
}

type ConfigFile struct {
	Model struct {
		Path              string  `yaml:"path"`
		PositiveThreshold float64 `yaml:"positiveThreshold"`
	} `yaml:"model"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	System struct {
		DataPath    string `yaml:"dataPath"`
		MetricsPort int    `yaml:"metricsPort"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	settings := Settings{
		ModelPath:         getEnvOrDefault("MODEL_PATH", config.Model.Path),
		PositiveThreshold: getFloatFromEnvOrConfig("POSITIVE_THRESHOLD", config.Model.PositiveThreshold),
		DataPath:          getEnvOrDefault("DATA_PATH", config.System.DataPath),
		MetricsPort:       getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort),
		ServerPort:        getIntFromEnvOrConfig("SERVER_PORT", config.Server.Port),
	}
	if settings.PositiveThreshold == 0 {
		settings.PositiveThreshold = 0.5
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ModelPath:         getEnvOrDefault("MODEL_PATH", "model.json"),
		PositiveThreshold: getFloatOrDefault("POSITIVE_THRESHOLD", 0.5),
		DataPath:          os.Getenv("DATA_PATH"), // optional
		MetricsPort:       getIntOrDefault("METRICS_PORT", 9090),
		ServerPort:        getIntOrDefault("SERVER_PORT", 0),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	return configValue
}

func getFloatFromEnvOrConfig(key string, configValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	return configValue
}

func validateSettings(settings *Settings) error {
	if settings.ModelPath == "" {
		return fmt.Errorf("model path is required")
	}

	// An out-of-range threshold still thresholds mechanically, so it is a
	// usage warning rather than an error.
	if settings.PositiveThreshold < 0 || settings.PositiveThreshold > 1 {
		log.Warn().Float64("threshold", settings.PositiveThreshold).Msg("positive threshold outside [0,1]")
	}

	if settings.MetricsPort != 0 && (settings.MetricsPort < 1024 || settings.MetricsPort > 65535) {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if settings.ServerPort != 0 && (settings.ServerPort < 1024 || settings.ServerPort > 65535) {
		return fmt.Errorf("server port must be between 1024 and 65535, got %d", settings.ServerPort)
	}

	return nil
}
