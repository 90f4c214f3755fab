package payment

import (
	"context"
	"fmt"

	"partyflow/config"
)

// NewProvider creates the checkout provider selected by configuration.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch ProviderName(cfg.PaymentProvider) {
	case ProviderStripe:
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("payment: stripe provider requires STRIPE_SECRET_KEY")
		}
		return newStripeAdapter(cfg.StripeSecretKey), nil

	case ProviderFake:
		return NewFakeProvider(cfg.PublicURL), nil

	default:
		return nil, fmt.Errorf("payment: unsupported provider %q", cfg.PaymentProvider)
	}
}

// SupportedProviders lists the configurable backends.
func SupportedProviders() []ProviderName {
	return []ProviderName{ProviderStripe, ProviderFake}
}
