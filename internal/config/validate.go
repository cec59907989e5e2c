package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateIdentification(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateCatalogs(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"scan.workers":         c.Scan.Workers,
		"tmdb.request_timeout": c.TMDB.RequestTimeout,
	})
}

func (c *Config) validateIdentification() error {
	if c.Identification.FuzzyThreshold < 0 || c.Identification.FuzzyThreshold > 100 {
		return errors.New("identification.fuzzy_threshold must be between 0 and 100")
	}
	if c.Identification.MinVoteCount < 0 {
		return errors.New("identification.min_vote_count must be >= 0")
	}
	if c.Identification.RuntimeDeltaMinutes < 0 {
		return errors.New("identification.runtime_delta_minutes must be >= 0")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.CooldownSeconds < 0 {
		return errors.New("search.cooldown_seconds must be >= 0")
	}
	return ensurePositiveMap(map[string]int{
		"search.request_timeout": c.Search.RequestTimeout,
		"search.max_pages":       c.Search.MaxPages,
	})
}

func (c *Config) validateCatalogs() error {
	for name, entry := range c.Catalogs {
		switch entry.Driver {
		case "", "unit3d", "f3nix":
		default:
			return fmt.Errorf("catalogs.%s.driver: unsupported driver %q (use unit3d or f3nix)", name, entry.Driver)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
