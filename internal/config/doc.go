// Package config defines the fall monitor settings and provides helpers to
// load, validate and save them in YAML format.
//
// Secrets and the emergency contact may also come from the environment,
// optionally seeded from a .env file.
package config
