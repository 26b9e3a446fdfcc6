package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/dmi-forecast/internal/forecast"
	"github.com/i474232898/dmi-forecast/internal/weather/dmi"
)

type AppConfig struct {
	// DMI feed.
	BaseURL           string
	AreaID            int
	PrecipitationBand forecast.Band
	Location          *time.Location // zone for timestamps without an offset

	HTTPTimeout time.Duration

	// FetchInterval controls how often the forecast is refreshed.
	FetchInterval time.Duration
	// MaxAge after which a stored forecast is no longer served (0 = unlimited).
	MaxAge time.Duration

	Port  string
	Debug bool
}

// Load reads configuration from the environment (including values loaded from
// an optional .env file), an optional config file and built-in defaults.
// Environment variables take precedence over the config file, which takes
// precedence over the defaults.
func Load(configPath string) (*AppConfig, error) {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("DMI_BASE_URL", dmi.DefaultBaseURL)
	v.SetDefault("DMI_AREA_ID", 2618425) // København
	v.SetDefault("DMI_PRECIPITATION_BAND", string(forecast.Band50))
	v.SetDefault("DMI_TIMEZONE", "Europe/Copenhagen")
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("FETCH_INTERVAL", "30m")
	v.SetDefault("FORECAST_MAX_AGE", "3h")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	cfg := &AppConfig{
		BaseURL: v.GetString("DMI_BASE_URL"),
		AreaID:  v.GetInt("DMI_AREA_ID"),
		Port:    v.GetString("PORT"),
		Debug:   v.GetBool("DEBUG"),
	}

	if cfg.AreaID <= 0 {
		return nil, fmt.Errorf("invalid DMI_AREA_ID: %d", cfg.AreaID)
	}

	band, err := parseBand(v.GetString("DMI_PRECIPITATION_BAND"))
	if err != nil {
		return nil, err
	}
	cfg.PrecipitationBand = band

	loc, err := time.LoadLocation(v.GetString("DMI_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid DMI_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.HTTPTimeout, err = parseDuration(v, "HTTP_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.FetchInterval, err = parseDuration(v, "FETCH_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.FetchInterval < time.Minute {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: must be at least 1m, got %s", cfg.FetchInterval)
	}
	if cfg.MaxAge, err = parseDuration(v, "FORECAST_MAX_AGE"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parser returns the point parser matching this configuration.
func (c *AppConfig) Parser() forecast.Parser {
	return forecast.NewParser(
		forecast.WithBand(c.PrecipitationBand),
		forecast.WithLocation(c.Location),
	)
}

func parseBand(s string) (forecast.Band, error) {
	switch b := forecast.Band(s); b {
	case forecast.Band50, forecast.Band90:
		return b, nil
	default:
		return "", fmt.Errorf("invalid DMI_PRECIPITATION_BAND %q: want %s or %s", s, forecast.Band50, forecast.Band90)
	}
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
