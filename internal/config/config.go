/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables (with
 * an optional .env file), providing a centralized way to manage settings.
 *
 * @dependencies
 * - github.com/spf13/viper: configuration management.
 */

package config

import (
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the voice assistant
// service. These values are loaded from environment variables.
type Config struct {
	ServerPort           string `mapstructure:"SERVER_PORT"`
	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	RedisURL             string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL          string `mapstructure:"RABBITMQ_URL"`

	GroqAPIKey     string `mapstructure:"GROQ_API_KEY"`
	GroqAPIBaseURL string `mapstructure:"GROQ_API_BASE_URL"`
	GroqModel      string `mapstructure:"GROQ_MODEL"`

	TwilioAccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAPIKey     string `mapstructure:"TWILIO_API_KEY"`
	TwilioAPISecret  string `mapstructure:"TWILIO_API_SECRET"`
	TwimlAppSID      string `mapstructure:"TWIML_APP_SID"`

	// Fallback customer for calls from numbers not present in the directory
	// (the demo softphone calls from an ephemeral browser identity).
	DemoUserID string `mapstructure:"DEMO_USER_ID"`

	AuthMaxAttempts        int    `mapstructure:"AUTH_MAX_ATTEMPTS"`
	HistoryTurnCap         int    `mapstructure:"HISTORY_TURN_CAP"`
	SessionIdleTTLMinutes  int    `mapstructure:"SESSION_IDLE_TTL_MINUTES"`
	SessionSweepSchedule   string `mapstructure:"SESSION_SWEEP_SCHEDULE"`
	TurnRateLimitPerMinute int    `mapstructure:"TURN_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8000")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "voicebank:rate_limit")
	viper.SetDefault("GROQ_API_BASE_URL", "https://api.groq.com")
	viper.SetDefault("GROQ_MODEL", "llama-3.1-8b-instant")
	viper.SetDefault("DEMO_USER_ID", "user-1")
	viper.SetDefault("AUTH_MAX_ATTEMPTS", 3)
	viper.SetDefault("HISTORY_TURN_CAP", 20)
	viper.SetDefault("SESSION_IDLE_TTL_MINUTES", 30)
	viper.SetDefault("SESSION_SWEEP_SCHEDULE", "@every 1m")
	viper.SetDefault("TURN_RATE_LIMIT_PER_MINUTE", 60)

	// Bind environment variables explicitly to ensure they appear in Unmarshal.
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("GROQ_API_KEY")
	_ = viper.BindEnv("GROQ_API_BASE_URL")
	_ = viper.BindEnv("GROQ_MODEL")
	_ = viper.BindEnv("TWILIO_ACCOUNT_SID")
	_ = viper.BindEnv("TWILIO_API_KEY")
	_ = viper.BindEnv("TWILIO_API_SECRET")
	_ = viper.BindEnv("TWIML_APP_SID")
	_ = viper.BindEnv("DEMO_USER_ID")
	_ = viper.BindEnv("AUTH_MAX_ATTEMPTS")
	_ = viper.BindEnv("HISTORY_TURN_CAP")
	_ = viper.BindEnv("SESSION_IDLE_TTL_MINUTES")
	_ = viper.BindEnv("SESSION_SWEEP_SCHEDULE")
	_ = viper.BindEnv("TURN_RATE_LIMIT_PER_MINUTE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("failed to read config file; using environment values", "error", err)
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return config, err
}
