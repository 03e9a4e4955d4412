// Package config loads application settings from defaults, an optional YAML
// file and TASKMANAGER_* environment variables, and validates the result.
package config
