package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	DatabaseURL string `env:"DATABASE_URL"`

	Auth     Auth     `envPrefix:"AUTH_"`
	Gateway  Gateway  `envPrefix:"GATEWAY_"`
	Checkout Checkout `envPrefix:"CHECKOUT_"`
	Sweep    Sweep    `envPrefix:"SWEEP_"`
}

type Gateway struct {
	BaseAPIURL    string        `env:"BASE_API_URL"`
	KeyID         string        `env:"KEY_ID"`
	KeySecret     string        `env:"KEY_SECRET"`
	WebhookSecret string        `env:"WEBHOOK_SECRET"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type Checkout struct {
	// Platform commission as a whole percentage of each discounted line total.
	CommissionPercent int64 `env:"COMMISSION_PERCENT" envDefault:"10"`
	// Smallest chargeable order total in minor currency units.
	MinimumAmount    int64  `env:"MINIMUM_AMOUNT" envDefault:"100"`
	Currency         string `env:"CURRENCY" envDefault:"USD"`
	ReturnWindowDays int    `env:"RETURN_WINDOW_DAYS" envDefault:"7"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Sweep struct {
	Interval time.Duration `env:"INTERVAL" envDefault:"10m"`
	// CREATED orders without a gateway reference older than this are cancelled.
	MaxAge time.Duration `env:"MAX_AGE" envDefault:"1h"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
