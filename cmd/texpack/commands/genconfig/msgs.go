package genconfig

// Message constants
const (
	MsgShort   = "Generate the default configuration file"
	MsgLong    = "Output the default configuration to stdout, or write it to the current directory.\n\nTOML output keeps every value commented out so the file documents the defaults\nwithout pinning them. YAML and JSON output contain the values themselves."
	MsgExample = `  texpack gen-config                  # Output to stdout
  texpack gen-config -w               # Write to ./texpack.toml
  texpack gen-config -f yaml -w       # Write to ./texpack.yaml`
	MsgWritten    = "Wrote %s\n"
	MsgFileExists = "%s already exists"
	MsgFlagWrite  = "Write config to a file instead of stdout"
	MsgFlagFormat = "Output format: toml, yaml or json"
)
