// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} and ${VAR:-fallback} syntax for environment
// variable interpolation. The feed URL is trimmed and http(s) becomes ws(s).
// See configs/feed.example.yaml for the full schema.
package config
