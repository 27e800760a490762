package reasoning

import (
	"context"
	"fmt"
	"time"
)

// Provider names accepted by New.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Options selects and configures a backend.
type Options struct {
	Provider string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// New builds the configured backend wrapped with its call timeout.
func New(ctx context.Context, o Options) (Service, string, error) {
	var (
		svc   Service
		model string
	)
	switch o.Provider {
	case ProviderGemini, "":
		g, err := NewGemini(ctx, o.APIKey, o.Model)
		if err != nil {
			return nil, "", err
		}
		svc, model = g, g.Model()
	case ProviderAnthropic:
		a, err := NewAnthropic(o.APIKey, o.Model)
		if err != nil {
			return nil, "", err
		}
		svc, model = a, a.Model()
	default:
		return nil, "", fmt.Errorf("unknown reasoning provider %q", o.Provider)
	}
	return WithTimeout(svc, o.Timeout), model, nil
}
