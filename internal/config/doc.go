// Package config loads the storefront CLI configuration from TOML.
package config
