package main

import (
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/model"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/resilience"
)

// providerPolicy builds the retry policy for provider calls from config.
func providerPolicy() resilience.Policy {
	p := resilience.DefaultPolicy()
	if cfg.Provider.MaxRetries > 0 {
		p.MaxRetries = cfg.Provider.MaxRetries
	}
	if cfg.Provider.BaseDelayMs > 0 {
		p.BaseDelay = cfg.Provider.BaseDelay()
	}
	if cfg.Provider.JitterMs > 0 {
		p.Jitter = cfg.Provider.Jitter()
	}
	return p
}

// normalizeKeyword matches provider-rejected keywords against batches
// using the same key the merge store dedupes on.
func normalizeKeyword(s string) string {
	return model.NormalizeKeyword(s)
}
