package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rzzdr/option-scenario-engine/internal/pricing"
	"github.com/rzzdr/option-scenario-engine/internal/scenario"
	"github.com/rzzdr/option-scenario-engine/internal/volatility"
	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

// Config for the whole application
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	API        APIConfig        `mapstructure:"api"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Pricing    PricingConfig    `mapstructure:"pricing"`
	Volatility VolatilityConfig `mapstructure:"volatility"`
	RateCurve  RateCurveConfig  `mapstructure:"rate_curve"`
	Market     MarketConfig     `mapstructure:"market"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// General application configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// Configuration for the API server
type APIConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
}

// Configuration for Kafka
type KafkaConfig struct {
	Brokers      []string `mapstructure:"brokers"`
	GroupID      string   `mapstructure:"group_id"`
	RequestTopic string   `mapstructure:"request_topic"`
	ResultTopic  string   `mapstructure:"result_topic"`
}

// Configuration for the pricing models and the scenario grid
type PricingConfig struct {
	LatticeSteps    int     `mapstructure:"lattice_steps"`
	MaxLatticeSteps int     `mapstructure:"max_lattice_steps"`
	Style           string  `mapstructure:"style"`
	ModelRatio      float64 `mapstructure:"model_ratio"`
	SpotStep        float64 `mapstructure:"spot_step"`
	IVStep          float64 `mapstructure:"iv_step"`
	VolBump         float64 `mapstructure:"vol_bump"`
	RateBump        float64 `mapstructure:"rate_bump"`
	TimeBump        float64 `mapstructure:"time_bump"`
	Workers         int     `mapstructure:"workers"`
}

// Configuration for the forward volatility bootstrap
type VolatilityConfig struct {
	CutoffDays    int     `mapstructure:"cutoff_days"`
	ForwardPeriod int     `mapstructure:"forward_period"`
	ATMBand       float64 `mapstructure:"atm_band"`
}

// Configuration for where the rate curve comes from
type RateCurveConfig struct {
	Source string          `mapstructure:"source"`
	File   string          `mapstructure:"file"`
	Points map[int]float64 `mapstructure:"points"`
}

// Configuration for file-backed market data
type MarketConfig struct {
	QuotesFile string `mapstructure:"quotes_file"`
	ChainFile  string `mapstructure:"chain_file"`
}

// Configuration for metrics
type MetricsConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Interval   time.Duration    `mapstructure:"interval"`
}

// Configuration for Prometheus metrics
type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Rate curve sources
const (
	RateCurveStatic = "static"
	RateCurveFile   = "file"
)

// Loads the configuration from a file and environment variables.
// An empty path searches ./config for config.yaml and falls back to defaults when none exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, apperrors.Wrap(err, "failed to read config file")
		}
	}

	v.SetEnvPrefix("OPTLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "option-scenario-engine")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "10s")
	v.SetDefault("api.write_timeout", "30s")
	v.SetDefault("api.shutdown_timeout", "15s")
	v.SetDefault("api.rate_limit", 50)
	v.SetDefault("api.rate_burst", 100)

	// Kafka defaults
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", "scenario-worker")
	v.SetDefault("kafka.request_topic", "scenario.requests")
	v.SetDefault("kafka.result_topic", "scenario.results")

	// Pricing defaults
	v.SetDefault("pricing.lattice_steps", models.DefaultLatticeSteps)
	v.SetDefault("pricing.max_lattice_steps", models.DefaultMaxLatticeSteps)
	v.SetDefault("pricing.style", "american")
	v.SetDefault("pricing.model_ratio", scenario.DefaultModelRatio)
	v.SetDefault("pricing.spot_step", scenario.DefaultSpotStep)
	v.SetDefault("pricing.iv_step", scenario.DefaultIVStep)
	v.SetDefault("pricing.vol_bump", pricing.DefaultVolBump)
	v.SetDefault("pricing.rate_bump", pricing.DefaultRateBump)
	v.SetDefault("pricing.time_bump", pricing.DefaultTimeBump)
	v.SetDefault("pricing.workers", scenario.DefaultWorkers)

	// Volatility defaults
	v.SetDefault("volatility.cutoff_days", volatility.DefaultCutoffDays)
	v.SetDefault("volatility.forward_period", volatility.DefaultForwardPeriod)
	v.SetDefault("volatility.atm_band", volatility.DefaultATMBand)

	// Rate curve defaults
	v.SetDefault("rate_curve.source", RateCurveStatic)
	v.SetDefault("rate_curve.file", "")
	v.SetDefault("rate_curve.points", map[int]float64{
		30:    0.0430,
		90:    0.0432,
		180:   0.0425,
		365:   0.0405,
		730:   0.0395,
		1825:  0.0405,
		3650:  0.0425,
		10950: 0.0460,
	})

	// Market data defaults
	v.SetDefault("market.quotes_file", "data/quotes.csv")
	v.SetDefault("market.chain_file", "data/chain.csv")

	// Metrics defaults
	v.SetDefault("metrics.prometheus.enabled", true)
	v.SetDefault("metrics.prometheus.port", 9090)
	v.SetDefault("metrics.interval", "15s")
}

// Validate rejects values no component could run with
func (c *Config) Validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return apperrors.Validationf("api.port must be in 1..65535, got %d", c.API.Port)
	}
	if c.API.RateLimit < 0 || (c.API.RateLimit > 0 && c.API.RateBurst < 1) {
		return apperrors.Validationf("api.rate_limit must not be negative and needs a positive api.rate_burst, got %g and %d", c.API.RateLimit, c.API.RateBurst)
	}
	if _, err := c.Pricing.Lattice(); err != nil {
		return err
	}
	if _, err := c.Pricing.Bumps(); err != nil {
		return err
	}
	if err := c.Pricing.Builder().Validate(); err != nil {
		return apperrors.Wrap(err, "pricing")
	}
	if err := c.Volatility.Bootstrap().Validate(); err != nil {
		return apperrors.Wrap(err, "volatility")
	}
	if c.Volatility.ATMBand <= 0 || c.Volatility.ATMBand >= 1 {
		return apperrors.Validationf("volatility.atm_band must be in (0, 1), got %g", c.Volatility.ATMBand)
	}

	switch c.RateCurve.Source {
	case RateCurveStatic:
		if len(c.RateCurve.Points) == 0 {
			return apperrors.Validationf("rate_curve.points must not be empty for the static source")
		}
	case RateCurveFile:
		if c.RateCurve.File == "" {
			return apperrors.Validationf("rate_curve.file is required for the file source")
		}
	default:
		return apperrors.Validationf("rate_curve.source must be %q or %q, got %q", RateCurveStatic, RateCurveFile, c.RateCurve.Source)
	}

	if c.Metrics.Interval <= 0 {
		return apperrors.Validationf("metrics.interval must be positive, got %s", c.Metrics.Interval)
	}
	if c.Metrics.Prometheus.Enabled && (c.Metrics.Prometheus.Port <= 0 || c.Metrics.Prometheus.Port > 65535) {
		return apperrors.Validationf("metrics.prometheus.port must be in 1..65535, got %d", c.Metrics.Prometheus.Port)
	}
	return nil
}

// Lattice returns the binomial tree settings
func (p PricingConfig) Lattice() (models.LatticeConfig, error) {
	style, err := models.ParseExerciseStyle(p.Style)
	if err != nil {
		return models.LatticeConfig{}, apperrors.Wrap(err, "pricing.style")
	}
	if p.MaxLatticeSteps < 1 {
		return models.LatticeConfig{}, apperrors.Validationf("pricing.max_lattice_steps must be at least 1, got %d", p.MaxLatticeSteps)
	}
	if p.LatticeSteps < 1 || p.LatticeSteps > p.MaxLatticeSteps {
		return models.LatticeConfig{}, apperrors.Validationf("pricing.lattice_steps must be in 1..%d, got %d", p.MaxLatticeSteps, p.LatticeSteps)
	}
	return models.LatticeConfig{Steps: p.LatticeSteps, Style: style, MaxSteps: p.MaxLatticeSteps}, nil
}

// Bumps returns the finite-difference sizes for lattice Greeks
func (p PricingConfig) Bumps() (pricing.Bumps, error) {
	if p.VolBump <= 0 || p.RateBump <= 0 || p.TimeBump <= 0 {
		return pricing.Bumps{}, apperrors.Validationf("pricing bumps must be positive, got vol %g rate %g time %g", p.VolBump, p.RateBump, p.TimeBump)
	}
	return pricing.Bumps{Vol: p.VolBump, Rate: p.RateBump, Time: p.TimeBump}, nil
}

// Builder returns the scenario grid settings. An unparseable style falls back to the default lattice.
func (p PricingConfig) Builder() scenario.Config {
	lattice, err := p.Lattice()
	if err != nil {
		lattice = models.DefaultLatticeConfig()
	}
	return scenario.Config{
		ModelRatio: p.ModelRatio,
		Lattice:    lattice,
		SpotStep:   p.SpotStep,
		IVStep:     p.IVStep,
		Workers:    p.Workers,
	}
}

// Bootstrap returns the forward vol settings
func (v VolatilityConfig) Bootstrap() volatility.Config {
	return volatility.Config{
		CutoffDays:    v.CutoffDays,
		ForwardPeriod: v.ForwardPeriod,
	}
}

// GetConfigPath returns the config file named by OPTLAB_CONFIG_PATH, or "" to search the defaults
func GetConfigPath() string {
	return os.Getenv("OPTLAB_CONFIG_PATH")
}
