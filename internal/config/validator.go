package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validatedConfig mirrors the Config fields that carry validation rules.
// Kept separate so struct tags don't clutter the main Config type.
type validatedConfig struct {
	TikTokUsername string `validate:"required"`
	AdminToken     string `validate:"required,min=16"`
	StreakMode     string `validate:"oneof=repeatEnd first every"`
	CooldownMs     int    `validate:"gte=0"`
	Port           int    `validate:"gt=0,lte=65535"`
}

// Validate checks required identity/credentials and value constraints.
func (c *Config) Validate() error {
	v := validator.New()
	err := v.Struct(validatedConfig{
		TikTokUsername: c.TikTokUsername,
		AdminToken:     c.AdminToken,
		StreakMode:     c.StreakMode,
		CooldownMs:     c.CooldownMs,
		Port:           c.Port,
	})
	if err == nil {
		return nil
	}

	var fields []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
	}
	return fmt.Errorf("invalid configuration: %w", err)
}
