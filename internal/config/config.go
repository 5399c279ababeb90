// Package config loads application settings from environment variables.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env  string `envconfig:"ENV" default:"development"`
	Port string `envconfig:"PORT" default:"8080"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPass string `envconfig:"REDIS_PASS" default:""`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	JWTSecret     string `envconfig:"JWT_SECRET" required:"true"`
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`

	// One-time credit on registration.
	SignupBonus float64 `envconfig:"SIGNUP_BONUS" default:"5"`
	// Fixed credit to the referrer per qualifying referral event,
	// independent of deposit size.
	ReferralBonus float64 `envconfig:"REFERRAL_BONUS" default:"1"`

	// Base win probabilities per difficulty. Admins can override them at
	// runtime through the settings endpoint; these are the boot values.
	WinProbEasy   float64 `envconfig:"WIN_PROB_EASY" default:"0.60"`
	WinProbMedium float64 `envconfig:"WIN_PROB_MEDIUM" default:"0.40"`
	WinProbHard   float64 `envconfig:"WIN_PROB_HARD" default:"0.25"`

	// Password a reset request resolves to when approved.
	ResetPassword string `envconfig:"RESET_PASSWORD" default:"Welcome123"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	for _, p := range []float64{cfg.WinProbEasy, cfg.WinProbMedium, cfg.WinProbHard} {
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("win probability out of range: %v", p)
		}
	}
	return &cfg, nil
}
