package senderfilter

import (
	"strings"

	"go.uber.org/zap"
)

// Checker gates which mail senders may feed receipts into the
// pipeline. An empty domain list allows everything, so the filter is
// opt-in.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a sender filter for the given allowed domains
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized sender filter", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// Allowed reports whether mail from the address should be processed.
// Addresses without a parseable domain are rejected whenever a filter
// is configured.
func (c *Checker) Allowed(from string) bool {
	if len(c.domains) == 0 {
		return true
	}

	parts := strings.Split(from, "@")
	if len(parts) != 2 {
		return false
	}
	domain := strings.ToLower(parts[1])

	for _, allowed := range c.domains {
		if allowed == domain {
			return true
		}
	}

	if c.logger != nil {
		c.logger.Debug("Sender domain not in allow-list",
			zap.String("domain", domain),
			zap.String("email", from))
	}
	return false
}
