// Package config loads runtime configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/Clark-Hu/storepeek/internal/locale"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port             int `envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeoutSecs  int `envconfig:"SERVER_READ_TIMEOUT" default:"15" validate:"min=1"`
	WriteTimeoutSecs int `envconfig:"SERVER_WRITE_TIMEOUT" default:"60" validate:"min=1"`
	IdleTimeoutSecs  int `envconfig:"SERVER_IDLE_TIMEOUT" default:"60" validate:"min=1"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*" validate:"dive,required"`

	Catalog struct {
		BaseURL            string `envconfig:"CATALOG_BASE_URL" default:"http://marketplaceedgeservice.windowsphone.com" validate:"url"`
		CDNBaseURL         string `envconfig:"CATALOG_CDN_BASE_URL" default:"http://cdn.marketplaceedgeservice.windowsphone.com" validate:"url"`
		ImageBaseURL       string `envconfig:"IMAGE_BASE_URL" default:"http://cdn.marketplaceimages.windowsphone.com" validate:"url"`
		UserAgent          string `envconfig:"USER_AGENT"`
		RequestTimeoutSecs int    `envconfig:"REQUEST_TIMEOUT_SECS" default:"30" validate:"min=1"`
		FanOutWorkers      int    `envconfig:"FANOUT_WORKERS" default:"16" validate:"min=1,max=256"`
		FiveStarScale      bool   `envconfig:"USE_FIVE_STAR_RATING_SCALE" default:"false"`
		DefaultCulture     string `envconfig:"DEFAULT_CULTURE" default:"en-US" validate:"required"`
	} `envconfig:""`

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn warning error fatal panic disabled off"`
		Format string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json console"`
	} `envconfig:""`
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("envconfig")
	})
	return v
}()

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return Config{}, fmt.Errorf("%s is invalid (%s=%s): %q", fe.Field(), fe.Tag(), fe.Param(), fmt.Sprint(fe.Value()))
		}
		return Config{}, err
	}

	culture, err := locale.Parse(cfg.Catalog.DefaultCulture)
	if err != nil || culture.IsSentinel() {
		return Config{}, fmt.Errorf("DEFAULT_CULTURE must name a concrete culture, got %q", cfg.Catalog.DefaultCulture)
	}
	cfg.Catalog.DefaultCulture = culture.String()

	return cfg, nil
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// RequestTimeout bounds one outbound catalog request.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Catalog.RequestTimeoutSecs) * time.Second
}

// FanOutBudget is the worst case duration of an all-locales call: every round
// of FanOutWorkers requests runs into the request timeout.
func (c Config) FanOutBudget() time.Duration {
	workers := max(c.Catalog.FanOutWorkers, 1)
	rounds := (len(locale.Concrete()) + workers - 1) / workers
	return time.Duration(rounds) * c.RequestTimeout()
}

// WriteTimeout is SERVER_WRITE_TIMEOUT, raised to FanOutBudget when the
// configured value would cut off a slow all-locales response.
func (c Config) WriteTimeout() time.Duration {
	return max(time.Duration(c.WriteTimeoutSecs)*time.Second, c.FanOutBudget())
}

// DefaultCulture is used by routes that receive no culture parameter.
func (c Config) DefaultCulture() locale.Locale { return locale.Locale(c.Catalog.DefaultCulture) }
