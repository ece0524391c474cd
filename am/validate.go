package am

import "github.com/teranos/QVIZ/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Database path is optional - empty defaults to "qviz.db"

	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.Newf("server.port cannot be 0 (omit for default port %d)", DefaultServerPort)
	}
	if c.Server.Port != nil && *c.Server.Port < 0 {
		return errors.Newf("server.port must be positive, got %d", *c.Server.Port)
	}

	if c.Server.MaxClients < 0 {
		return errors.Newf("server.max_clients must be >= 0, got %d", c.Server.MaxClients)
	}
	if c.Server.RatePerSecond < 0 {
		return errors.Newf("server.rate_per_second must be >= 0, got %f", c.Server.RatePerSecond)
	}
	if c.Server.RateBurst < 0 {
		return errors.Newf("server.rate_burst must be >= 0, got %d", c.Server.RateBurst)
	}

	// Compact budget: 0 = no budget (previews run until settled), negative = invalid
	if c.Layout.CompactBudgetMs < 0 {
		return errors.Newf("layout.compact_budget_ms must be >= 0, got %d", c.Layout.CompactBudgetMs)
	}

	// Panel geometry: 0 = use default, negative or out-of-range = invalid
	if c.Panel.WidthFraction < 0 || c.Panel.WidthFraction > 1 {
		return errors.Newf("panel.width_fraction must be in [0, 1], got %f", c.Panel.WidthFraction)
	}
	if c.Panel.MinWidth < 0 {
		return errors.Newf("panel.min_width must be >= 0, got %f", c.Panel.MinWidth)
	}
	if c.Panel.ChromeHeight < 0 {
		return errors.Newf("panel.chrome_height must be >= 0, got %f", c.Panel.ChromeHeight)
	}
	if c.Panel.TransitionMs < 0 {
		return errors.Newf("panel.transition_ms must be >= 0, got %d", c.Panel.TransitionMs)
	}

	// Export scale: bounded so a fat-fingered config cannot allocate huge rasters
	if c.Export.Scale < 0 || c.Export.Scale > 8 {
		return errors.Newf("export.scale must be in [0, 8], got %d", c.Export.Scale)
	}

	return nil
}
