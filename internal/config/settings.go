// File: internal/config/settings.go
package config

// EngineSettings adapts the engine section of the configuration to the
// settings capability the trigger engine consumes
type EngineSettings struct {
	cfg *EngineConfig
}

// NewEngineSettings creates a settings view over the engine configuration
func NewEngineSettings(cfg *EngineConfig) *EngineSettings {
	return &EngineSettings{cfg: cfg}
}

// SiteURL returns the configured site URL
func (s *EngineSettings) SiteURL() string {
	return s.cfg.SiteURL
}

// AllowInvalidCerts reports whether self-signed certificates are accepted
func (s *EngineSettings) AllowInvalidCerts() bool {
	return s.cfg.AllowInvalidCerts
}
