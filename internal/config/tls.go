// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package config

import (
	"crypto/tls"
	"fmt"
)

// TLSConfig controls TLS settings for the REST listener. Deployments
// that terminate TLS at a reverse proxy leave it disabled.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// MinVersion is "TLS1.2" or "TLS1.3". Defaults to TLS 1.2.
	MinVersion string `yaml:"min_version"`
}

// Validate checks the TLS settings.
func (cfg *TLSConfig) Validate() error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.CertFile == "" {
		return fmt.Errorf("TLS cert_file is required when TLS is enabled")
	}
	if cfg.KeyFile == "" {
		return fmt.Errorf("TLS key_file is required when TLS is enabled")
	}
	if cfg.MinVersion != "" && cfg.MinVersion != "TLS1.2" && cfg.MinVersion != "TLS1.3" {
		return fmt.Errorf("invalid TLS min_version: %s (must be TLS1.2 or TLS1.3)", cfg.MinVersion)
	}
	return nil
}

// LoadTLSConfig loads a tls.Config from the TLSConfig struct. Returns
// nil when TLS is disabled.
func (cfg *TLSConfig) LoadTLSConfig() (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load server certificate: %w", err)
	}

	minVersion := uint16(tls.VersionTLS12)
	if cfg.MinVersion == "TLS1.3" {
		minVersion = tls.VersionTLS13
	}

	// #nosec G402 - MinVersion is set via variable with TLS 1.2 default, gosec cannot detect this pattern
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
	}, nil
}
