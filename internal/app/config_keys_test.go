//go:build !headless

package app

import (
	"errors"
	"testing"
)

func TestValidateRejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		field  string
		modify func(c *Config)
	}{
		{"input.player1_keys", func(c *Config) { c.Input.Player1Keys.A = "NoSuchKey" }},
		{"input.player2_keys", func(c *Config) { c.Input.Player2Keys.Start = "Enterr" }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			c := NewConfig()
			tt.modify(c)
			var ce *ConfigError
			if err := c.validate(); !errors.As(err, &ce) || ce.Field != tt.field {
				t.Errorf("validate() = %v, want a ConfigError for %s", err, tt.field)
			}
		})
	}
}
