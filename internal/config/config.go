package config

import (
	"fmt"
	"time"

	"github.com/jellydator/validation"
	"github.com/jellydator/validation/is"
	"github.com/kelseyhightower/envconfig"
)

// App holds the runtime configuration for the tracker service and the
// sibling CLI commands. An empty DBPath selects an in-memory database.
type App struct {
	APIBaseURL    string        `envconfig:"RBFTRACK_API_BASE_URL" default:"http://127.0.0.1:3000"`
	DBPath        string        `envconfig:"RBFTRACK_DB_PATH" default:""`
	PollInterval  time.Duration `envconfig:"RBFTRACK_POLL_INTERVAL" default:"5s"`
	PurgeInterval time.Duration `envconfig:"RBFTRACK_PURGE_INTERVAL" default:"1h"`
	StatsInterval time.Duration `envconfig:"RBFTRACK_STATS_INTERVAL" default:"60s"`
	Retention     time.Duration `envconfig:"RBFTRACK_RETENTION" default:"168h"`
	BatchSize     int           `envconfig:"RBFTRACK_BATCH_SIZE" default:"200"`
	HTTPTimeout   time.Duration `envconfig:"RBFTRACK_HTTP_TIMEOUT" default:"5s"`
}

func NewApp() (App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return App{}, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return App{}, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c App) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.APIBaseURL, validation.Required, is.URL),
		validation.Field(&c.PollInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.PurgeInterval, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.StatsInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Retention, validation.Required, validation.Min(time.Hour)),
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&c.HTTPTimeout, validation.Required, validation.Min(time.Second)),
	)
}
