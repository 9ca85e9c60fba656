// Package config loads, normalizes, and validates airwaves configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STORAGE_PATH, FFMPEG_PATH and the worker concurrency variables, optionally
// seeded from a .env file.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
