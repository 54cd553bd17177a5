package core

import (
	"encoding/json"
	"fmt"
	"os"

	envstruct "code.cloudfoundry.org/go-envstruct"
)

type Config struct {
	DataPath     string `json:"data_path"      env:"TRAFFIC_DATA_PATH"`
	ExportPath   string `json:"export_path"    env:"TRAFFIC_EXPORT_PATH"`
	ChartPath    string `json:"chart_path"     env:"TRAFFIC_CHART_PATH"`
	PlotDataPath string `json:"plot_data_path" env:"TRAFFIC_PLOT_DATA_PATH"`
	ListenAddr   string `json:"listen_addr"    env:"TRAFFIC_LISTEN_ADDR"`
	APIKey       string `json:"api_key"        env:"TRAFFIC_API_KEY, noreport"`
	LogLevel     string `json:"log_level"      env:"TRAFFIC_LOG_LEVEL"`
	ChartWidth   int    `json:"chart_width"    env:"TRAFFIC_CHART_WIDTH"`
	ChartHeight  int    `json:"chart_height"   env:"TRAFFIC_CHART_HEIGHT"`
	// WatchInterval is how often, in seconds, the HTTP server checks
	// DataPath for changes and reloads it. Zero disables watching.
	WatchInterval int    `json:"watch_interval" env:"TRAFFIC_WATCH_INTERVAL"`
	ConfigPath    string `json:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		DataPath:     "trafficdata.csv",
		ExportPath:   "exported_trafficdata.csv",
		ChartPath:    "traffic_chart.png",
		PlotDataPath: "traffic_data.txt",
		ListenAddr:   "127.0.0.1:8080",
		LogLevel:     "info",
		ChartWidth:   1000,
		ChartHeight:  500,
	}
}

// LoadConfig reads defaults, then the JSON file if it exists, then
// TRAFFIC_* environment overrides.
func LoadConfig(path ...string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := "config.json"
	if len(path) > 0 && path[0] != "" {
		configPath = path[0]
	}
	cfg.ConfigPath = configPath

	f, err := os.Open(configPath)
	if err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	if err := envstruct.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}

	return cfg, nil
}

func (c *Config) SaveAppConfig() error {
	path := c.ConfigPath
	if path == "" {
		path = "config.json"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

func (c *Config) ChartOptions() ChartOptions {
	return ChartOptions{Width: c.ChartWidth, Height: c.ChartHeight}
}
