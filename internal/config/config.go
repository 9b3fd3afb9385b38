package config

import (
	"flag"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ibeloyar/laundry/internal/pricing"
	"github.com/shopspring/decimal"
)

const (
	DefaultRunAddress           = ":8080"
	DefaultDatabaseURI          = ""
	DefaultBillingSystemAddress = ""
	DefaultExportInterval       = 5 * time.Second
	DefaultQuotaRetryAttempts   = 3
	DefaultTracingEndpoint      = ""
)

type Config struct {
	RunAddress           string        `env:"RUN_ADDRESS"`
	DatabaseURI          string        `env:"DATABASE_URI"`
	BillingSystemAddress string        `env:"BILLING_SYSTEM_ADDRESS"`
	ExportInterval       time.Duration `env:"EXPORT_INTERVAL"`
	QuotaRetryAttempts   int           `env:"QUOTA_RETRY_ATTEMPTS"`
	TracingEndpoint      string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	UnitPriceLarge      decimal.Decimal `env:"UNIT_PRICE_LARGE"`
	UnitPriceSmall      decimal.Decimal `env:"UNIT_PRICE_SMALL"`
	PerKgDetailedRate   decimal.Decimal `env:"PER_KG_DETAILED_RATE"`
	DryingRatePerKg     decimal.Decimal `env:"DRYING_RATE_PER_KG"`
	IroningRatePerKg    decimal.Decimal `env:"IRONING_RATE_PER_KG"`
	ExpressSurcharge    decimal.Decimal `env:"EXPRESS_SURCHARGE"`
	DeliverySurcharge   decimal.Decimal `env:"DELIVERY_SURCHARGE"`
	MonthlyQuotaCeiling decimal.Decimal `env:"MONTHLY_QUOTA_CEILING"`
	StudentDiscountRate decimal.Decimal `env:"STUDENT_DISCOUNT_RATE"`
}

func Read() (Config, error) {
	config := Config{}
	rates := pricing.DefaultRates()

	flag.StringVar(&config.RunAddress, "a", DefaultRunAddress, "Server run address")
	flag.StringVar(&config.DatabaseURI, "d", DefaultDatabaseURI, "Database connect string")
	flag.StringVar(&config.BillingSystemAddress, "b", DefaultBillingSystemAddress, "Billing system address protocol://hostname:port, export is off when empty")
	flag.DurationVar(&config.ExportInterval, "e", DefaultExportInterval, "Billing export interval (e.g. 5s, 1m)")
	flag.IntVar(&config.QuotaRetryAttempts, "q", DefaultQuotaRetryAttempts, "Attempts to apply a quota increment on concurrent updates")
	flag.StringVar(&config.TracingEndpoint, "t", DefaultTracingEndpoint, "OTLP/HTTP collector host:port, tracing is off when empty")

	flag.TextVar(&config.UnitPriceLarge, "unit-price-large", rates.UnitPriceLarge, "Price of one 20kg load")
	flag.TextVar(&config.UnitPriceSmall, "unit-price-small", rates.UnitPriceSmall, "Price of one 6kg load")
	flag.TextVar(&config.PerKgDetailedRate, "per-kg-detailed-rate", rates.PerKgDetailedRate, "Detailed formula price per kg")
	flag.TextVar(&config.DryingRatePerKg, "drying-rate", rates.DryingRatePerKg, "Drying price per kg")
	flag.TextVar(&config.IroningRatePerKg, "ironing-rate", rates.IroningRatePerKg, "Ironing price per kg")
	flag.TextVar(&config.ExpressSurcharge, "express-surcharge", rates.ExpressSurcharge, "Fixed express surcharge")
	flag.TextVar(&config.DeliverySurcharge, "delivery-surcharge", rates.DeliverySurcharge, "Fixed delivery surcharge")
	flag.TextVar(&config.MonthlyQuotaCeiling, "quota-ceiling", rates.MonthlyQuotaCeiling, "Premium monthly quota in kg")
	flag.TextVar(&config.StudentDiscountRate, "student-discount", rates.StudentDiscountRate, "Student discount rate within [0, 1]")

	flag.Parse()

	err := env.Parse(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

func (c Config) Rates() pricing.Rates {
	return pricing.Rates{
		UnitPriceLarge:      c.UnitPriceLarge,
		UnitPriceSmall:      c.UnitPriceSmall,
		PerKgDetailedRate:   c.PerKgDetailedRate,
		DryingRatePerKg:     c.DryingRatePerKg,
		IroningRatePerKg:    c.IroningRatePerKg,
		ExpressSurcharge:    c.ExpressSurcharge,
		DeliverySurcharge:   c.DeliverySurcharge,
		MonthlyQuotaCeiling: c.MonthlyQuotaCeiling,
		StudentDiscountRate: c.StudentDiscountRate,
	}
}
