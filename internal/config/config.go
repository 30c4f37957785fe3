package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type PricingConfig struct {
	SameSiteDiscount      float64
	AreaDiscount          float64
	AdjacentDayDiscount   float64
	ProximityDriveMinutes int
}

type AllocationConfig struct {
	NearbyKm        float64
	MaxDayJobs      int
	ExperienceYears int
}

type PostcodeConfig struct {
	BaseURL        string
	TimeoutSeconds int
	CacheTTLHours  int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Pricing     PricingConfig
	Allocation  AllocationConfig
	Postcode    PostcodeConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Pricing: PricingConfig{
			SameSiteDiscount:      v.GetFloat64("PRICING_SAME_SITE_DISCOUNT"),
			AreaDiscount:          v.GetFloat64("PRICING_AREA_DISCOUNT"),
			AdjacentDayDiscount:   v.GetFloat64("PRICING_ADJACENT_DAY_DISCOUNT"),
			ProximityDriveMinutes: v.GetInt("PRICING_PROXIMITY_DRIVE_MINUTES"),
		},
		Allocation: AllocationConfig{
			NearbyKm:        v.GetFloat64("ALLOC_NEARBY_KM"),
			MaxDayJobs:      v.GetInt("ALLOC_MAX_DAY_JOBS"),
			ExperienceYears: v.GetInt("ALLOC_EXPERIENCE_YEARS"),
		},
		Postcode: PostcodeConfig{
			BaseURL:        v.GetString("POSTCODE_API_BASE_URL"),
			TimeoutSeconds: v.GetInt("POSTCODE_API_TIMEOUT_SECONDS"),
			CacheTTLHours:  v.GetInt("POSTCODE_CACHE_TTL_HOURS"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7092
	}
	if cfg.Pricing.SameSiteDiscount == 0 {
		cfg.Pricing.SameSiteDiscount = 50
	}
	if cfg.Pricing.AreaDiscount == 0 {
		cfg.Pricing.AreaDiscount = 25
	}
	if cfg.Pricing.AdjacentDayDiscount == 0 {
		cfg.Pricing.AdjacentDayDiscount = 10
	}
	if cfg.Pricing.ProximityDriveMinutes == 0 {
		cfg.Pricing.ProximityDriveMinutes = 20
	}
	if cfg.Allocation.NearbyKm == 0 {
		cfg.Allocation.NearbyKm = 10
	}
	if cfg.Allocation.MaxDayJobs == 0 {
		cfg.Allocation.MaxDayJobs = 3
	}
	if cfg.Allocation.ExperienceYears == 0 {
		cfg.Allocation.ExperienceYears = 5
	}
	if cfg.Postcode.BaseURL == "" {
		cfg.Postcode.BaseURL = "https://api.postcodes.io"
	}
	if cfg.Postcode.TimeoutSeconds == 0 {
		cfg.Postcode.TimeoutSeconds = 5
	}
	if cfg.Postcode.CacheTTLHours == 0 {
		cfg.Postcode.CacheTTLHours = 24
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Pricing.SameSiteDiscount < cfg.Pricing.AreaDiscount ||
		cfg.Pricing.AreaDiscount < cfg.Pricing.AdjacentDayDiscount {
		return fmt.Errorf("pricing discounts must be ordered: same-site >= area >= adjacent-day")
	}
	return nil
}
