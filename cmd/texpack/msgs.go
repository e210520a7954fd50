package texpack

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort     = "Pack image directory trees into texture atlases"
	MsgPackShort     = "Pack an input tree into atlases"
	MsgWatchShort    = "Pack an input tree and repack it on changes"
	MsgSettingsShort = "Print the effective settings of a directory"
	MsgVersionShort  = "Print version information"
	MsgTopicsShort   = "Read about concepts like override documents and naming"
	MsgTopicsLong    = "Topics lists the available help topics, or prints the one named."

	// Status messages
	MsgDryRunNotice   = "\nDRY RUN MODE - No files were written or removed"
	MsgNothingPacked  = "No images found."
	MsgPackedFormat   = "\nPacked %d director%s:\n"
	MsgPackedItem     = "  ✓ %s → %s (%d image%s)\n"
	MsgRemovedFormat  = "Removed %d stale file%s\n"
	MsgWatchStarted   = "Watching %s (Ctrl-C to stop)\n"
	MsgWatchRunFailed = "Run failed: %v\n"
	MsgVersionFormat  = "texpack %s (commit %s, built %s)\n"
	MsgTopicsHeader   = "Available help topics:"
	MsgTopicItem      = "  %s\n"
	MsgTopicsFooter   = "\nUse 'texpack topics <topic>' to read one."

	// Error messages
	MsgErrLoadConfig = "failed to load configuration: %w"
	MsgErrProcess    = "failed to pack: %w"

	// Flag descriptions
	MsgFlagVerbose      = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun       = "Preview changes without writing or removing files"
	MsgFlagConfig       = "Configuration file (default: ./texpack.toml when present)"
	MsgFlagPackName     = "Name of the atlas descriptor file (default pack.atlas)"
	MsgFlagOverrideName = "Name of the per-directory settings override file"
	MsgFlagNoFlatten    = "Mirror input subdirectories in the output root"
	MsgFlagNoRecursive  = "Only pack the input root itself"
	MsgFlagExclude      = "Exclude paths matching this pattern (repeatable)"
	MsgFlagOnly         = "Pack only this file or directory, relative to the input (repeatable)"
	MsgFlagFormat       = "Output format: toml, yaml or json"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/pack-long.txt
	msgPackLongRaw string
	MsgPackLong    = strings.TrimSpace(msgPackLongRaw)

	//go:embed msgs/pack-example.txt
	msgPackExampleRaw string
	MsgPackExample    = strings.TrimRight(msgPackExampleRaw, "\n")

	//go:embed msgs/watch-long.txt
	msgWatchLongRaw string
	MsgWatchLong    = strings.TrimSpace(msgWatchLongRaw)

	//go:embed msgs/watch-example.txt
	msgWatchExampleRaw string
	MsgWatchExample    = strings.TrimRight(msgWatchExampleRaw, "\n")

	//go:embed msgs/settings-long.txt
	msgSettingsLongRaw string
	MsgSettingsLong    = strings.TrimSpace(msgSettingsLongRaw)

	//go:embed msgs/settings-example.txt
	msgSettingsExampleRaw string
	MsgSettingsExample    = strings.TrimRight(msgSettingsExampleRaw, "\n")

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
