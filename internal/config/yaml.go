// SPDX-License-Identifier: MIT
package config

import (
	"audiostate/internal/log"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is searched when LoadConfig is given an empty path.
const DefaultPath = "config.yaml"

// LoadConfig reads configuration from the YAML file at path over the built-in
// defaults. An empty path tries DefaultPath and falls back to the defaults
// when it does not exist. Environment overrides are applied last, then the
// result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// applyEnvOverrides applies ENV_* variables on top of the loaded values.
// Unparseable values are ignored with a warning.
func (c *Config) applyEnvOverrides() {
	// ENV_{...}
	// General overrides.
	envBool("ENV_DEBUG", &c.Debug)
	envString("ENV_LOG_LEVEL", &c.LogLevel)
	envString("ENV_MODE", &c.Mode)

	// ENV_ANALYSIS_{...}
	envInt("ENV_ANALYSIS_FRAME_SIZE", &c.Analysis.FrameSize)
	envInt("ENV_ANALYSIS_HOP_SIZE", &c.Analysis.HopSize)
	envString("ENV_ANALYSIS_WINDOW", &c.Analysis.Window)

	// ENV_AUDIO_{...}
	envInt("ENV_AUDIO_INPUT_DEVICE", &c.Audio.InputDevice)

	// ENV_UDP_{...} and ENV_WS_{...}
	// Transport layer.
	envBool("ENV_UDP_ENABLED", &c.Transport.UDPEnabled)
	envString("ENV_UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)
	envDuration("ENV_UDP_SEND_INTERVAL", &c.Transport.UDPSendInterval)
	envBool("ENV_WS_ENABLED", &c.Transport.WebSocketEnabled)
	envString("ENV_WS_ADDRESS", &c.Transport.WebSocketAddress)
}

func envString(key string, dst *string) {
	if val, ok := os.LookupEnv(key); ok {
		*dst = val
		log.Debugf("configuration: Overriding from %s: %s", key, val)
	}
}

func envBool(key string, dst *bool) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			log.Warnf("configuration: Ignoring %s=%q: %v", key, val, err)
			return
		}
		*dst = b
		log.Debugf("configuration: Overriding from %s: %v", key, b)
	}
}

func envInt(key string, dst *int) {
	if val, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			log.Warnf("configuration: Ignoring %s=%q: %v", key, val, err)
			return
		}
		*dst = n
		log.Debugf("configuration: Overriding from %s: %d", key, n)
	}
}

func envDuration(key string, dst *time.Duration) {
	if val, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Warnf("configuration: Ignoring %s=%q: %v", key, val, err)
			return
		}
		*dst = d
		log.Debugf("configuration: Overriding from %s: %s", key, d)
	}
}
