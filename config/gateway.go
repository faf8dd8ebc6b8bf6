package config

import "time"

// GatewayConfig holds the hosted payment gateway credentials.
// KeyID is public and is handed to the checkout client; the secrets never leave the server.
type GatewayConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	KeyID         string        `mapstructure:"key_id"`
	KeySecret     string        `mapstructure:"key_secret"`
	WebhookSecret string        `mapstructure:"webhook_secret"`
	Currency      string        `mapstructure:"currency"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

func (g GatewayConfig) validate() error {
	if g.KeyID == "" || g.KeySecret == "" {
		return errMissing("GATEWAY_KEY_ID / GATEWAY_KEY_SECRET")
	}
	return nil
}
