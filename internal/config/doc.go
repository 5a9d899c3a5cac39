// Package config loads, normalizes, and validates recbooth configuration data.
//
// It supplies repository defaults that reproduce the fixture layout automated
// tests expect (tests/fixtures under the project root), expands user paths
// (including tilde shortcuts), and reads an optional TOML file. The Config type
// centralizes every knob the CLI and session loop need, so fixture directories
// can be redirected to temporary locations in tests.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
