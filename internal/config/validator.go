package config

import (
	"errors"
	"fmt"

	"github.com/rencanakan/ahsmatch/internal/embedding"
	apperrors "github.com/rencanakan/ahsmatch/internal/errors"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults
// Returns an error if validation fails
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateCatalog(&cfg.Catalog); err != nil {
		return apperrors.NewConfigError("catalog", "", err)
	}

	if err := v.validateThresholds(&cfg.Thresholds); err != nil {
		return apperrors.NewConfigError("thresholds", "", err)
	}

	if err := v.validateEmbedding(&cfg.Embedding); err != nil {
		return apperrors.NewConfigError("embedding", "", err)
	}

	if err := v.validateServer(&cfg.Server); err != nil {
		return apperrors.NewConfigError("server", "", err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

// validateCatalog validates catalog configuration
func (v *Validator) validateCatalog(c *Catalog) error {
	if c.Path == "" {
		return errors.New("catalog path cannot be empty")
	}

	if c.WatchDebounceMs < 0 {
		return fmt.Errorf("watch_debounce_ms cannot be negative, got %d", c.WatchDebounceMs)
	}

	if c.NameCandidateCap < 0 {
		return fmt.Errorf("name_candidate_cap cannot be negative, got %d", c.NameCandidateCap)
	}

	if c.GetAllCap < 0 {
		return fmt.Errorf("get_all_cap cannot be negative, got %d", c.GetAllCap)
	}

	return nil
}

// validateThresholds validates the matching decision thresholds
func (v *Validator) validateThresholds(t *Thresholds) error {
	if t.Single < 0 || t.Single > 1 {
		return fmt.Errorf("single must be within [0,1], got %v", t.Single)
	}

	if t.Multi < 0 || t.Multi > 1 {
		return fmt.Errorf("multi must be within [0,1], got %v", t.Multi)
	}

	if t.SingleWord < 0 || t.SingleWord > 1 {
		return fmt.Errorf("single_word must be within [0,1], got %v", t.SingleWord)
	}

	if t.Single != 0 && t.Multi > t.Single {
		return fmt.Errorf("multi threshold %v exceeds single threshold %v", t.Multi, t.Single)
	}

	if t.Limit < 0 {
		return fmt.Errorf("limit cannot be negative, got %d", t.Limit)
	}

	return nil
}

// validateEmbedding validates embedding configuration
func (v *Validator) validateEmbedding(e *Embedding) error {
	if e.Dim < 0 {
		return fmt.Errorf("dim cannot be negative, got %d", e.Dim)
	}

	if e.MinScore < 0 || e.MinScore > 1 {
		return fmt.Errorf("min_score must be within [0,1], got %v", e.MinScore)
	}

	return nil
}

// validateServer validates server configuration
func (v *Validator) validateServer(s *Server) error {
	if s.RatePerSecond < 0 {
		return fmt.Errorf("rate_per_second cannot be negative, got %v", s.RatePerSecond)
	}

	if s.RateBurst < 0 {
		return fmt.Errorf("rate_burst cannot be negative, got %d", s.RateBurst)
	}

	if s.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes cannot be negative, got %d", s.MaxBodyBytes)
	}

	if s.ReadTimeoutMs < 0 {
		return fmt.Errorf("read_timeout_ms cannot be negative, got %d", s.ReadTimeoutMs)
	}

	if s.WriteTimeoutMs < 0 {
		return fmt.Errorf("write_timeout_ms cannot be negative, got %d", s.WriteTimeoutMs)
	}

	if s.ShutdownTimeoutMs < 0 {
		return fmt.Errorf("shutdown_timeout_ms cannot be negative, got %d", s.ShutdownTimeoutMs)
	}

	return nil
}

// setSmartDefaults fills fields left at zero with working defaults
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Catalog.WatchDebounceMs == 0 {
		cfg.Catalog.WatchDebounceMs = DefaultWatchDebounceMs
	}

	if cfg.Embedding.Dim == 0 {
		cfg.Embedding.Dim = embedding.DefaultHashingDim
	}

	if cfg.Embedding.MinScore == 0 {
		cfg.Embedding.MinScore = embedding.DefaultMinScore
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}

	// An empty origin list would reject every browser caller.
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}

	if cfg.Server.RatePerSecond == 0 {
		cfg.Server.RatePerSecond = DefaultRatePerSecond
	}

	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = DefaultRateBurst
	}

	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	if cfg.Server.ReadTimeoutMs == 0 {
		cfg.Server.ReadTimeoutMs = DefaultReadTimeoutMs
	}

	if cfg.Server.WriteTimeoutMs == 0 {
		cfg.Server.WriteTimeoutMs = DefaultWriteTimeoutMs
	}

	if cfg.Server.ShutdownTimeoutMs == 0 {
		cfg.Server.ShutdownTimeoutMs = DefaultShutdownTimeoutMs
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
