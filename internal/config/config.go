/**
 * @description
 * Configuration management for the church-management service. Uses viper
 * to load settings from environment variables so deployments configure
 * the service without code changes.
 */

package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`

	// Circulation policy. Hold and loan periods are policy knobs, never
	// hard-coded in the service logic.
	ReservationHoldHours int `mapstructure:"RESERVATION_HOLD_HOURS"`
	LoanPeriodDays       int `mapstructure:"LOAN_PERIOD_DAYS"`

	// Cron schedules for the sweep jobs.
	ReservationExpirySchedule string `mapstructure:"RESERVATION_EXPIRY_SCHEDULE"`
	OverdueSweepSchedule      string `mapstructure:"OVERDUE_SWEEP_SCHEDULE"`

	// Optional integrations; empty values disable them.
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`

	// Rate limit for reservation creation per member.
	ReservationRateLimit  int `mapstructure:"RESERVATION_RATE_LIMIT"`
	ReservationRateWindow int `mapstructure:"RESERVATION_RATE_WINDOW_SECONDS"`
}

// ReservationHoldPeriod returns the hold window as a duration.
func (c Config) ReservationHoldPeriod() time.Duration {
	return time.Duration(c.ReservationHoldHours) * time.Hour
}

// LoanPeriod returns the default loan length as a duration.
func (c Config) LoanPeriod() time.Duration {
	return time.Duration(c.LoanPeriodDays) * 24 * time.Hour
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("RESERVATION_HOLD_HOURS", 48)
	viper.SetDefault("LOAN_PERIOD_DAYS", 14)
	viper.SetDefault("RESERVATION_EXPIRY_SCHEDULE", "*/15 * * * *")
	viper.SetDefault("OVERDUE_SWEEP_SCHEDULE", "5 0 * * *")
	viper.SetDefault("RESERVATION_RATE_LIMIT", 5)
	viper.SetDefault("RESERVATION_RATE_WINDOW_SECONDS", 3600)
	viper.AutomaticEnv()

	// Bind environment variables explicitly so they appear in Unmarshal.
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("RESERVATION_HOLD_HOURS")
	_ = viper.BindEnv("LOAN_PERIOD_DAYS")
	_ = viper.BindEnv("RESERVATION_EXPIRY_SCHEDULE")
	_ = viper.BindEnv("OVERDUE_SWEEP_SCHEDULE")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("RESERVATION_RATE_LIMIT")
	_ = viper.BindEnv("RESERVATION_RATE_WINDOW_SECONDS")

	err = viper.Unmarshal(&config)
	return
}
