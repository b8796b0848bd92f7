// Package cfg loads pipeline configuration from a YAML file selected by
// the CONFIG_FILE environment variable, with environment variables taking
// precedence over file values. All paths are validated before a run
// starts.
package cfg

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Settings is the resolved runtime configuration for a classification run.
type Settings struct {
	ModelPath       string
	EventsPath      string
	ChannelInfoPath string
	FeaturesPath    string
	OutputDir       string
	ResultsFile     string
	DataPath        string // optional BoltDB directory, empty disables persistence
	MetricsPort     int    // 0 disables the metrics endpoint
	LogLevel        string
}

// ConfigFile mirrors the YAML configuration layout.
type ConfigFile struct {
	Inputs struct {
		EventsFile      string `yaml:"eventsFile"`
		ChannelInfoFile string `yaml:"channelInfoFile"`
		FeaturesFile    string `yaml:"featuresFile"`
	} `yaml:"inputs"`

	Model struct {
		Path string `yaml:"path"`
	} `yaml:"model"`

	Output struct {
		Dir         string `yaml:"dir"`
		ResultsFile string `yaml:"resultsFile"`
	} `yaml:"output"`

	System struct {
		DataPath    string `yaml:"dataPath"`
		MetricsPort int    `yaml:"metricsPort"`
		LogLevel    string `yaml:"logLevel"`
	} `yaml:"system"`
}

// Load resolves settings from the YAML file named by CONFIG_FILE when set,
// falling back to environment variables alone.
func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
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
		ModelPath:       getEnvOrDefault("MODEL_PATH", config.Model.Path),
		EventsPath:      getEnvOrDefault("EVENTS_FILE", config.Inputs.EventsFile),
		ChannelInfoPath: getEnvOrDefault("CHANNEL_INFO_FILE", config.Inputs.ChannelInfoFile),
		FeaturesPath:    getEnvOrDefault("FEATURES_FILE", config.Inputs.FeaturesFile),
		OutputDir:       getEnvOrDefault("OUTPUT_DIR", config.Output.Dir),
		ResultsFile:     getEnvOrDefault("RESULTS_FILE", config.Output.ResultsFile),
		DataPath:        getEnvOrDefault("DATA_PATH", config.System.DataPath),
		MetricsPort:     getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", config.System.LogLevel),
	}
	if settings.LogLevel == "" {
		settings.LogLevel = "info"
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ModelPath:       getEnvOrDefault("MODEL_PATH", "model/model.json"),
		EventsPath:      getEnvOrDefault("EVENTS_FILE", "input_data/detected_hfo_events.csv"),
		ChannelInfoPath: getEnvOrDefault("CHANNEL_INFO_FILE", "outputs/preprocessed_channel_info.json"),
		FeaturesPath:    getEnvOrDefault("FEATURES_FILE", "outputs/hfo_event_features.csv"),
		OutputDir:       getEnvOrDefault("OUTPUT_DIR", "outputs"),
		ResultsFile:     getEnvOrDefault("RESULTS_FILE", "classified_hfo_events.csv"),
		DataPath:        os.Getenv("DATA_PATH"), // optional
		MetricsPort:     getIntOrDefault("METRICS_PORT", 0),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
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

func getIntFromEnvOrConfig(key string, configValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings checks that every required path is set and numeric
// values are in range.
func validateSettings(settings *Settings) error {
	required := map[string]string{
		"model path":        settings.ModelPath,
		"events file":       settings.EventsPath,
		"channel info file": settings.ChannelInfoPath,
		"features file":     settings.FeaturesPath,
		"output directory":  settings.OutputDir,
		"results file":      settings.ResultsFile,
	}
	for name, v := range required {
		if v == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
	}

	if settings.MetricsPort != 0 && (settings.MetricsPort < 1024 || settings.MetricsPort > 65535) {
		return fmt.Errorf("metrics port must be 0 or between 1024 and 65535, got %d", settings.MetricsPort)
	}

	switch settings.LogLevel {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}

	return nil
}
