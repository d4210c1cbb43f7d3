package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/sellerscope/pkg/domain/entities"
	"github.com/vsinha/sellerscope/pkg/domain/services/fees"
)

// DefaultPath is read when no config file is named. It may be absent.
const DefaultPath = "sellerscope.yaml"

// Environment overrides, applied after the config file
const (
	EnvConfigPath = "SELLERSCOPE_CONFIG"
	EnvLogLevel   = "SELLERSCOPE_LOG_LEVEL"
	EnvHTTPAddr   = "SELLERSCOPE_HTTP_ADDR"
	EnvWorkers    = "SELLERSCOPE_WORKERS"
	EnvCountry    = "SELLERSCOPE_COUNTRY"
)

// Decimal is a decimal.Decimal read from a YAML scalar such as 0.08 or "1000"
type Decimal struct {
	decimal.Decimal
}

// UnmarshalYAML parses the scalar exactly, without a float64 round trip
func (d *Decimal) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	value, err := decimal.NewFromString(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: invalid number %q", node.Line, node.Value)
	}
	d.Decimal = value
	return nil
}

// MarshalYAML writes the decimal as a plain scalar
func (d Decimal) MarshalYAML() (any, error) {
	return d.String(), nil
}

// AnalysisSection holds the detector thresholds
type AnalysisSection struct {
	TargetMarginPercent       Decimal `yaml:"target_margin_percent"`
	DeadStockAgeThresholdDays int     `yaml:"dead_stock_age_threshold_days"`
	CostOfCapitalRate         Decimal `yaml:"cost_of_capital_rate"`
	TargetTurnoverRatio       Decimal `yaml:"target_turnover_ratio"`
	HighImpactEUR             Decimal `yaml:"high_impact_eur"`
	MediumImpactEUR           Decimal `yaml:"medium_impact_eur"`
}

// FeesSection holds referral fee rates by category
type FeesSection struct {
	Categories      map[string]Decimal `yaml:"categories"`
	DefaultRate     Decimal            `yaml:"default_rate"`
	FixedFeePerUnit Decimal            `yaml:"fixed_fee_per_unit"`
}

// VATSection holds VAT rates by destination country
type VATSection struct {
	Countries   map[string]Decimal `yaml:"countries"`
	DefaultRate Decimal            `yaml:"default_rate"`
}

// LogSection configures the logger
type LogSection struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// HTTPSection configures the API server
type HTTPSection struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Config holds application configuration
type Config struct {
	Analysis AnalysisSection `yaml:"analysis"`
	Fees     FeesSection     `yaml:"fees"`
	VAT      VATSection      `yaml:"vat"`
	Log      LogSection      `yaml:"log"`
	HTTP     HTTPSection     `yaml:"http"`
	Workers  int             `yaml:"workers"`

	// Country is the default VAT destination when a request names none
	Country string `yaml:"country"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	analysis := entities.DefaultAnalysisConfig()
	schedule := fees.DefaultSchedule()

	cfg := &Config{
		Analysis: AnalysisSection{
			TargetMarginPercent:       Decimal{analysis.TargetMarginPercent},
			DeadStockAgeThresholdDays: analysis.DeadStockAgeThresholdDays,
			CostOfCapitalRate:         Decimal{analysis.CostOfCapitalRate},
			TargetTurnoverRatio:       Decimal{analysis.TargetTurnoverRatio},
			HighImpactEUR:             Decimal{analysis.HighImpactEUR},
			MediumImpactEUR:           Decimal{analysis.MediumImpactEUR},
		},
		Fees: FeesSection{
			Categories:      make(map[string]Decimal, len(schedule.ReferralRates)),
			DefaultRate:     Decimal{schedule.DefaultReferralRate},
			FixedFeePerUnit: Decimal{schedule.FixedFeePerUnit},
		},
		VAT: VATSection{
			Countries:   make(map[string]Decimal, len(schedule.VATRates)),
			DefaultRate: Decimal{schedule.DefaultVATRate},
		},
		Log:     LogSection{Level: "info"},
		HTTP:    HTTPSection{Addr: ":8080", AllowedOrigins: []string{"*"}},
		Workers: 4,
		Country: "DE",
	}
	for category, rate := range schedule.ReferralRates {
		cfg.Fees.Categories[category] = Decimal{rate}
	}
	for country, rate := range schedule.VATRates {
		cfg.VAT.Countries[country] = Decimal{rate}
	}
	return cfg
}

// Load reads configuration from path, the SELLERSCOPE_CONFIG file or
// sellerscope.yaml, in that order, then applies environment overrides.
// File values are merged over the defaults; rate tables add to or replace
// individual default entries. A named file must exist; the default file may not.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := Default()

	optional := false
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = DefaultPath
		optional = true
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Log.Level = getEnv(EnvLogLevel, c.Log.Level)
	c.HTTP.Addr = getEnv(EnvHTTPAddr, c.HTTP.Addr)
	c.Country = getEnv(EnvCountry, c.Country)

	if value := os.Getenv(EnvWorkers); value != "" {
		workers, err := strconv.Atoi(value)
		if err != nil {
			return &entities.ConfigError{Key: EnvWorkers, Reason: fmt.Sprintf("must be an integer, got %q", value)}
		}
		c.Workers = workers
	}
	return nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.AnalysisConfig().Validate(); err != nil {
		return err
	}
	if c.Workers < 1 {
		return &entities.ConfigError{Key: "workers", Reason: fmt.Sprintf("must be at least 1, got %d", c.Workers)}
	}
	if err := checkRate("fees.default_rate", c.Fees.DefaultRate); err != nil {
		return err
	}
	if c.Fees.FixedFeePerUnit.IsNegative() {
		return &entities.ConfigError{Key: "fees.fixed_fee_per_unit", Reason: "cannot be negative"}
	}
	for category, rate := range c.Fees.Categories {
		if err := checkRate("fees.categories."+category, rate); err != nil {
			return err
		}
	}
	if err := checkRate("vat.default_rate", c.VAT.DefaultRate); err != nil {
		return err
	}
	for country, rate := range c.VAT.Countries {
		if err := checkRate("vat.countries."+country, rate); err != nil {
			return err
		}
	}
	return nil
}

func checkRate(key string, rate Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return &entities.ConfigError{Key: key, Reason: "must be a rate in [0, 1], got " + rate.String()}
	}
	return nil
}

// AnalysisConfig converts the analysis section into detector thresholds
func (c *Config) AnalysisConfig() entities.AnalysisConfig {
	return entities.AnalysisConfig{
		TargetMarginPercent:       c.Analysis.TargetMarginPercent.Decimal,
		DeadStockAgeThresholdDays: c.Analysis.DeadStockAgeThresholdDays,
		CostOfCapitalRate:         c.Analysis.CostOfCapitalRate.Decimal,
		TargetTurnoverRatio:       c.Analysis.TargetTurnoverRatio.Decimal,
		HighImpactEUR:             c.Analysis.HighImpactEUR.Decimal,
		MediumImpactEUR:           c.Analysis.MediumImpactEUR.Decimal,
	}
}

// FeeSchedule converts the fee and VAT sections into a fees.Schedule
func (c *Config) FeeSchedule() fees.Schedule {
	schedule := fees.Schedule{
		ReferralRates:       make(map[string]decimal.Decimal, len(c.Fees.Categories)),
		DefaultReferralRate: c.Fees.DefaultRate.Decimal,
		FixedFeePerUnit:     c.Fees.FixedFeePerUnit.Decimal,
		VATRates:            make(map[string]decimal.Decimal, len(c.VAT.Countries)),
		DefaultVATRate:      c.VAT.DefaultRate.Decimal,
	}
	for category, rate := range c.Fees.Categories {
		schedule.ReferralRates[category] = rate.Decimal
	}
	for country, rate := range c.VAT.Countries {
		schedule.VATRates[country] = rate.Decimal
	}
	return schedule
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
