// Package config loads and validates application configuration from
// environment variables (QFORGE_ prefix) and an optional YAML file, using
// viper for loading and validator for struct-tag validation.
package config
