package server

import (
	"net"
	"strconv"
	"time"
)

const (
	defaultPortConstant                = 5000
	defaultShutdownTimeoutConstant     = 5 * time.Second
	allowAllOriginsConstant            = "*"
	hostKeySuffixConstant              = ".host"
	portKeySuffixConstant              = ".port"
	allowedOriginsKeySuffixConstant    = ".allowed_origins"
	shutdownTimeoutKeySuffixConstant   = ".shutdown_timeout"
	cleanupOnShutdownKeySuffixConstant = ".cleanup_on_shutdown"
)

// Configuration describes the HTTP listener settings.
type Configuration struct {
	Host              string        `mapstructure:"host" yaml:"host"`
	Port              int           `mapstructure:"port" yaml:"port"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CleanupOnShutdown bool          `mapstructure:"cleanup_on_shutdown" yaml:"cleanup_on_shutdown"`
}

// DefaultConfiguration returns the built-in listener settings.
func DefaultConfiguration() Configuration {
	return Configuration{
		Port:              defaultPortConstant,
		AllowedOrigins:    []string{allowAllOriginsConstant},
		ShutdownTimeout:   defaultShutdownTimeoutConstant,
		CleanupOnShutdown: true,
	}
}

// DefaultConfigurationValues exposes the defaults keyed under prefix for the configuration loader.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		prefix + hostKeySuffixConstant:              defaults.Host,
		prefix + portKeySuffixConstant:              defaults.Port,
		prefix + allowedOriginsKeySuffixConstant:    defaults.AllowedOrigins,
		prefix + shutdownTimeoutKeySuffixConstant:   defaults.ShutdownTimeout.String(),
		prefix + cleanupOnShutdownKeySuffixConstant: defaults.CleanupOnShutdown,
	}
}

// Address renders host:port for net.Listen. A non-positive port falls back to the default.
func (configuration Configuration) Address() string {
	port := configuration.Port
	if port <= 0 {
		port = defaultPortConstant
	}
	return net.JoinHostPort(configuration.Host, strconv.Itoa(port))
}

func (configuration Configuration) shutdownTimeout() time.Duration {
	if configuration.ShutdownTimeout <= 0 {
		return defaultShutdownTimeoutConstant
	}
	return configuration.ShutdownTimeout
}

func (configuration Configuration) allowedOrigins() []string {
	if len(configuration.AllowedOrigins) == 0 {
		return []string{allowAllOriginsConstant}
	}
	return configuration.AllowedOrigins
}
