// Package config loads texpack's run configuration.
// Sources are layered: embedded defaults, an optional config file
// (TOML, YAML or JSON), TEXPACK_* environment variables, then explicit
// command-line flags.
package config
