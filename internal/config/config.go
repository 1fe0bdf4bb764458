package config

import (
	"fmt"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/config"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix of the marketplace service.
const EnvPrefix = "MARKET"

// PricingConfig holds the configurable tariffs.
type PricingConfig struct {
	TransportRatePerKm decimal.Decimal
	PartyHall          pricing.PartyHallTariff
}

// AdminConfig identifies the operator that receives admin notifications.
type AdminConfig struct {
	UserID         uuid.UUID
	Email          string
	SupportContact string
}

// ServiceConfig holds all configuration for the marketplace service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	HallID      string
	DBConfig    config.DatabaseConfig
	JWTConfig   config.JWTConfig
	KafkaConfig config.KafkaConfig
	RedisConfig config.RedisConfig
	AMQPConfig  config.AMQPConfig
	Pricing     PricingConfig
	Admin       AdminConfig
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load(EnvPrefix)
	if err != nil {
		return nil, err
	}
	setServiceDefaults(v)

	pricingCfg, err := loadPricing(v)
	if err != nil {
		return nil, err
	}

	admin := AdminConfig{
		Email:          v.GetString("ADMIN_EMAIL"),
		SupportContact: v.GetString("SUPPORT_CONTACT"),
	}
	if raw := v.GetString("ADMIN_USER_ID"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_USER_ID %q: %w", raw, err)
		}
		admin.UserID = id
	}

	return &ServiceConfig{
		Port:        config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:      config.GetAppEnv(v),
		HallID:      v.GetString("HALL_ID"),
		DBConfig:    config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:   config.LoadJWTConfig(v),
		KafkaConfig: config.LoadKafkaConfig(v),
		RedisConfig: config.LoadRedisConfig(v),
		AMQPConfig:  config.LoadAMQPConfig(v),
		Pricing:     pricingCfg,
		Admin:       admin,
	}, nil
}

func setServiceDefaults(v *viper.Viper) {
	tariff := pricing.DefaultPartyHallTariff()
	v.SetDefault("service_port", "8080")
	v.SetDefault("db_name", "marketplace")
	v.SetDefault("hall_id", "main-hall")
	v.SetDefault("admin_email", "admin@example.com")
	v.SetDefault("support_contact", "+91 90000 00000")
	v.SetDefault("transport_rate_per_km", "15")
	v.SetDefault("hall_base_charge", tariff.BaseCharge.String())
	v.SetDefault("hall_snacks_unit", tariff.SnacksUnit.String())
	v.SetDefault("hall_water_unit", tariff.WaterUnit.String())
	v.SetDefault("hall_cake_unit", tariff.CakeUnit.String())
	v.SetDefault("hall_decoration_flat", tariff.DecorationFlat.String())
	v.SetDefault("hall_tea_per_person", tariff.TeaPerPerson.String())
}

func loadPricing(v *viper.Viper) (PricingConfig, error) {
	var (
		cfg  PricingConfig
		errs []error
	)
	amount := func(key string) decimal.Decimal {
		d, err := decimal.NewFromString(v.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return decimal.Zero
		}
		if d.IsNegative() {
			errs = append(errs, fmt.Errorf("%s must not be negative", key))
		}
		return d
	}

	cfg.TransportRatePerKm = amount("transport_rate_per_km")
	cfg.PartyHall = pricing.PartyHallTariff{
		BaseCharge:     amount("hall_base_charge"),
		SnacksUnit:     amount("hall_snacks_unit"),
		WaterUnit:      amount("hall_water_unit"),
		CakeUnit:       amount("hall_cake_unit"),
		DecorationFlat: amount("hall_decoration_flat"),
		TeaPerPerson:   amount("hall_tea_per_person"),
	}
	if len(errs) > 0 {
		return PricingConfig{}, fmt.Errorf("invalid pricing config: %v", errs)
	}
	return cfg, nil
}
