package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/nnviz/pkg/errors"
)

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	if err := c.Canvas.Validate(); err != nil {
		return fmt.Errorf("canvas: %w", err)
	}
	if c.Node.NodeWidth <= 0 || c.Node.NodeHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "node: size must be positive, got %gx%g", c.Node.NodeWidth, c.Node.NodeHeight)
	}
	if c.Node.Radius < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "node: radius must not be negative, got %g", c.Node.Radius)
	}
	if err := c.Pulse.Validate(); err != nil {
		return fmt.Errorf("pulse: %w", err)
	}
	if err := errors.ValidatePresetKey(c.Preset); err != nil {
		return fmt.Errorf("preset: %w", err)
	}
	if err := oneOf("cache.backend", c.Cache.Backend, CacheBackends); err != nil {
		return err
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	if err := oneOf("session.backend", c.Session.Backend, SessionBackends); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "server.addr cannot be empty")
	}
	if c.Server.SessionTTL <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "server.session_ttl must be positive, got %s", c.Server.SessionTTL)
	}
	return nil
}

func oneOf(key, value string, allowed []string) error {
	if !slices.Contains(allowed, value) {
		return errors.New(errors.ErrCodeInvalidInput, "%s: unknown backend %q (must be one of: %s)",
			key, value, strings.Join(allowed, ", "))
	}
	return nil
}
