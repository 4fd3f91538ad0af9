// Package config loads, normalizes, and validates Garland configuration.
//
// Configuration lives in a TOML file (default ~/.config/garland/config.toml,
// falling back to garland.toml in the working directory). API credentials may
// be supplied through environment variables instead of the file; normalize
// fills them in so no other package reads the environment directly.
package config
