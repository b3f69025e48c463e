package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	pricingdomain "github.com/stackbill/tradequote/internal/pricing/domain"
)

// PricingConfig is the process-wide pricing configuration as declared in
// pricing.yml. Changes apply only to quotes computed after the change;
// already-approved invoices keep their frozen snapshots.
type PricingConfig struct {
	DefaultMarkupPercent float64 `mapstructure:"defaultMarkupPercent"`
	Mode                 string  `mapstructure:"mode"`
	Allocation           string  `mapstructure:"allocation"`
	RoundingDecimals     int32   `mapstructure:"roundingDecimals"`
	Currency             string  `mapstructure:"currency"`
	Incoterm             string  `mapstructure:"incoterm"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		DefaultMarkupPercent: 25,
		Mode:                 string(pricingdomain.PricingModeMarkup),
		Allocation:           string(pricingdomain.AllocationByWeight),
		RoundingDecimals:     2,
		Currency:             "USD",
	}
}

type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingConfigHolder(log *zap.Logger) (*PricingConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("pricing.config")

	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/tradequote/config") // Volume-mounted config
	v.AddConfigPath("/etc/tradequote")            // System config
	v.AddConfigPath(".")                          // Current directory (dev mode)

	v.SetEnvPrefix("TRADEQUOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultPricingConfig()
		v.SetDefault("pricing.defaultMarkupPercent", defaults.DefaultMarkupPercent)
		v.SetDefault("pricing.mode", defaults.Mode)
		v.SetDefault("pricing.allocation", defaults.Allocation)
		v.SetDefault("pricing.roundingDecimals", defaults.RoundingDecimals)
		v.SetDefault("pricing.currency", defaults.Currency)
		v.SetDefault("pricing.incoterm", defaults.Incoterm)
	}

	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PricingConfig
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Error("pricing config reload failed", zap.Error(err))
			return
		}
		if err := validatePricingConfig(updated); err != nil {
			log.Warn("invalid pricing config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("pricing config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticPricingConfigHolder pins the holder to cfg with no file
// watching. Intended for tests.
func NewStaticPricingConfigHolder(cfg PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *PricingConfigHolder) Get() PricingConfig {
	return h.current.Load().(PricingConfig)
}

// Settings converts the current configuration into the engine's
// settings value. Each call reads one consistent snapshot of the
// configuration; mid-computation reloads cannot mix values.
func (h *PricingConfigHolder) Settings() pricingdomain.Settings {
	cfg := h.Get()
	percent := decimal.NewFromFloat(cfg.DefaultMarkupPercent)
	return pricingdomain.Settings{
		DefaultPercent:   &percent,
		Mode:             pricingdomain.PricingMode(cfg.Mode),
		Allocation:       pricingdomain.AllocationMethod(cfg.Allocation),
		RoundingDecimals: cfg.RoundingDecimals,
		Currency:         cfg.Currency,
		Incoterm:         cfg.Incoterm,
	}
}

func validatePricingConfig(cfg PricingConfig) error {
	switch cfg.Mode {
	case string(pricingdomain.PricingModeMarkup), string(pricingdomain.PricingModeMargin):
	default:
		return errors.New("pricing.mode must be markup or margin")
	}
	if cfg.Mode == string(pricingdomain.PricingModeMargin) && cfg.DefaultMarkupPercent >= 100 {
		return errors.New("pricing.defaultMarkupPercent must be below 100 in margin mode")
	}
	if cfg.RoundingDecimals < 0 || cfg.RoundingDecimals > 6 {
		return errors.New("pricing.roundingDecimals must be between 0 and 6")
	}
	if cfg.Currency == "" {
		return errors.New("pricing.currency cannot be empty")
	}
	return nil
}
