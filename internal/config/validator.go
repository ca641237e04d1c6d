package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// configRules mirrors Config with validation tags; kept separate so the
// Config struct itself stays tag-free for callers.
type configRules struct {
	Port               int    `validate:"required,gt=0,lte=65535"`
	APIKey             string `validate:"required,min=16"`
	SlackClientID      string `validate:"required"`
	SlackClientSecret  string `validate:"required"`
	SlackSigningSecret string `validate:"required"`
	SlackAppID         string `validate:"required"`
	SpaceSigningKey    string `validate:"required"`
	WorkerCeiling      int    `validate:"required,gt=0,lte=64"`
	WorkerQueue        int    `validate:"required,gt=0"`
}

// Validate checks the loaded configuration for completeness. Missing Slack
// or Space credentials are a startup error: the service cannot verify
// webhooks without them.
func (c *Config) Validate() error {
	rules := configRules{
		Port:               c.Port,
		APIKey:             c.APIKey,
		SlackClientID:      c.SlackClientID,
		SlackClientSecret:  c.SlackClientSecret,
		SlackSigningSecret: c.SlackSigningSecret,
		SlackAppID:         c.SlackAppID,
		SpaceSigningKey:    c.SpaceSigningKey,
		WorkerCeiling:      c.WorkerCeiling,
		WorkerQueue:        c.WorkerQueue,
	}

	v := validator.New()
	if err := v.Struct(rules); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			fields := make([]string, 0, len(invalid))
			for _, fe := range invalid {
				fields = append(fields, fe.Field())
			}
			return fmt.Errorf("invalid configuration, check fields: %v", fields)
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if len(c.TokenSealKey) != 0 && len(c.TokenSealKey) != TokenSealKeyLength {
		return fmt.Errorf("TOKEN_SEAL_KEY must be %d bytes", TokenSealKeyLength)
	}

	return nil
}
