package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type NotifierConfig struct {
	Schedule                  string        `mapstructure:"schedule"`
	Timezone                  string        `mapstructure:"timezone"`
	EmailCooldown             time.Duration `mapstructure:"email_cooldown"`
	EmailBatchLimit           int           `mapstructure:"email_batch_limit"`
	EmailableThresholds       []int         `mapstructure:"emailable_thresholds"`
	BaseURL                   string        `mapstructure:"base_url"`
	BrevoAPIKey               string        `mapstructure:"brevo_api_key"`
	BrevoMaxRequestsPerSecond float32       `mapstructure:"brevo_max_requests_per_second"`
	SenderEmail               string        `mapstructure:"sender_email"`
	SenderName                string        `mapstructure:"sender_name"`
}

// setDefaults preserves the original product behavior: daily run at 09:00
// Europe/Rome, 6 hour resend cooldown, at most 10 notifications per digest,
// emailable thresholds {0,1,3,7}.
func (config *NotifierConfig) setDefaults() {
	if config.Schedule == "" {
		config.Schedule = "0 9 * * *"
	}
	if config.Timezone == "" {
		config.Timezone = "Europe/Rome"
	}
	if config.EmailCooldown == 0 {
		config.EmailCooldown = 6 * time.Hour
	}
	if config.EmailBatchLimit == 0 {
		config.EmailBatchLimit = 10
	}
	if len(config.EmailableThresholds) == 0 {
		config.EmailableThresholds = []int{0, 1, 3, 7}
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://concoro.it"
	}
	if config.SenderName == "" {
		config.SenderName = "Concoro"
	}
}

func (config NotifierConfig) validate() error {

	var missingFields []string

	// BrevoAPIKey is deliberately not required: without it the notifier
	// still records notifications and only skips email sends.
	if config.SenderEmail == "" {
		missingFields = append(missingFields, "sender_email")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required variables: %s", strings.Join(missingFields, ", "))
	}

	if config.EmailCooldown < 0 {
		return fmt.Errorf("email_cooldown must be non-negative")
	}

	if config.EmailBatchLimit < 1 {
		return fmt.Errorf("email_batch_limit must be positive")
	}

	if _, err := time.LoadLocation(config.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", config.Timezone, err)
	}

	return nil
}

func (config NotifierConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("notifier.brevo_api_key", "BREVO_API_KEY"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("notifier.sender_email", "SENDER_EMAIL"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("notifier.base_url", "BASE_URL"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
