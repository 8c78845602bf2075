// Package config handles configuration loading for slicehouse.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from SLICEHOUSE_CONFIG environment variable
//  2. ~/.config/slicehouse/slicehouse.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  challenge_secret: "${SLICEHOUSE_CHALLENGE_SECRET}"
//
// # Durations
//
// Duration fields accept Go duration strings ("30s", "2m", "24h"):
//
//	sessions:
//	  ttl: "24h"
//	  sweep_interval: "5m"
package config
