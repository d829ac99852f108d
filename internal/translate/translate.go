// Package translate machine-translates post content through the Azure
// Translator API.
package translate

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/erendikmenn/erenailab-blog/internal/config"
)

var (
	// ErrNotConfigured is returned when no translator credentials are set.
	ErrNotConfigured = errors.New("translator is not configured")

	// ErrFallback accompanies the untranslated input when the upstream
	// service failed. Callers may serve the text but should not cache it.
	ErrFallback = errors.New("translation unavailable, original text returned")
)

// Translator translates a batch of texts. The result has one entry per
// input, in the same order. An empty from lets the service detect the
// source language.
type Translator interface {
	Translate(ctx context.Context, texts []string, to, from string) ([]string, error)
}

// New returns the Azure client behind a circuit breaker, or a translator
// that always fails with ErrNotConfigured when no key is set. fallbacks,
// if not nil, counts calls answered with the original text.
func New(cfg config.TranslatorConfig, fallbacks prometheus.Counter) Translator {
	if !cfg.Enabled() {
		return disabled{}
	}
	return NewBreaker(NewAzureClient(cfg), fallbacks)
}

type disabled struct{}

func (disabled) Translate(context.Context, []string, string, string) ([]string, error) {
	return nil, ErrNotConfigured
}
