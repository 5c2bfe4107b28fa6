// Package config loads, normalizes, and validates volscribe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VOLSCRIBE_CATALOG_ENDPOINT and AZURE_STORAGE_ACCOUNT_URL. The Config type
// centralizes every knob the pipeline and CLI need, from the work directory
// layout to the assembly thresholds, so collaborators are constructed from a
// single explicit value rather than package globals.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical engine names, and clear validation errors.
package config
