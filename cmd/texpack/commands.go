package texpack

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/arthur-debert/texpack/cmd/texpack/commands/genconfig"
	"github.com/arthur-debert/texpack/internal/version"
	"github.com/arthur-debert/texpack/pkg/config"
	"github.com/arthur-debert/texpack/pkg/logging"
	"github.com/arthur-debert/texpack/pkg/processor"
	"github.com/arthur-debert/texpack/pkg/watcher"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	verbosity  int
	dryRun     bool
	configFile string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	// Initialize custom template formatting functions
	initTemplateFormatting()

	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "texpack",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, MsgFlagDryRun)
	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", MsgFlagConfig)

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "config",
		Title: "CONFIGURATION:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newPackCmd(opts))
	rootCmd.AddCommand(newWatchCmd(opts))
	rootCmd.AddCommand(newSettingsCmd(opts))
	rootCmd.AddCommand(genconfig.NewCommand())
	rootCmd.AddCommand(newTopicsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// packFlags are the flags that override the loaded configuration
type packFlags struct {
	packName     string
	overrideName string
	noFlatten    bool
	noRecursive  bool
	excludes     []string
}

func (f *packFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.packName, "pack-name", "", MsgFlagPackName)
	cmd.Flags().StringVar(&f.overrideName, "override-name", "", MsgFlagOverrideName)
	cmd.Flags().BoolVar(&f.noFlatten, "no-flatten", false, MsgFlagNoFlatten)
	cmd.Flags().BoolVar(&f.noRecursive, "no-recursive", false, MsgFlagNoRecursive)
	cmd.Flags().StringSliceVar(&f.excludes, "exclude", nil, MsgFlagExclude)
}

// overrides returns the config keys for the flags set on cmd
func (f *packFlags) overrides(cmd *cobra.Command) map[string]interface{} {
	o := make(map[string]interface{})
	if cmd.Flags().Changed("pack-name") {
		o["pack.name"] = f.packName
	}
	if cmd.Flags().Changed("override-name") {
		o["pack.override_name"] = f.overrideName
	}
	if cmd.Flags().Changed("no-flatten") {
		o["walk.flatten"] = !f.noFlatten
	}
	if cmd.Flags().Changed("no-recursive") {
		o["walk.recursive"] = !f.noRecursive
	}
	if cmd.Flags().Changed("exclude") {
		o["walk.excludes"] = f.excludes
	}
	return o
}

func loadConfig(opts *globalOptions, overrides map[string]interface{}) (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		ConfigFile: opts.configFile,
		Overrides:  overrides,
	})
	if err != nil {
		return nil, fmt.Errorf(MsgErrLoadConfig, err)
	}
	return cfg, nil
}

// packedSuffix names the default output root next to the input
const packedSuffix = "-packed"

// roots returns the input root and the output root, which defaults to a
// sibling of the input named <input>-packed
func roots(args []string) (string, string) {
	if len(args) > 1 {
		return args[0], args[1]
	}
	input := filepath.Clean(args[0])
	if abs, err := filepath.Abs(input); err == nil {
		input = abs
	}
	return args[0], input + packedSuffix
}

func newPackCmd(opts *globalOptions) *cobra.Command {
	var (
		flags packFlags
		only  []string
	)

	cmd := &cobra.Command{
		Use:     "pack <input> [output]",
		Short:   MsgPackShort,
		Long:    MsgPackLong,
		Example: MsgPackExample,
		GroupID: "core",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, flags.overrides(cmd))
			if err != nil {
				return err
			}
			p, err := processor.New(cfg.ProcessorConfig(opts.dryRun))
			if err != nil {
				return err
			}

			input, output := roots(args)
			if len(only) > 0 {
				files := make([]string, len(only))
				for i, f := range only {
					files[i] = filepath.Join(input, f)
				}
				_, err = p.ProcessFiles(input, files, output)
			} else {
				_, err = p.Process(input, output)
			}
			if err != nil {
				return fmt.Errorf(MsgErrProcess, err)
			}

			printSummary(cmd.OutOrStdout(), p, input, output, opts.dryRun)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVar(&only, "only", nil, MsgFlagOnly)

	return cmd
}

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var flags packFlags

	cmd := &cobra.Command{
		Use:     "watch <input> [output]",
		Short:   MsgWatchShort,
		Long:    MsgWatchLong,
		Example: MsgWatchExample,
		GroupID: "core",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, flags.overrides(cmd))
			if err != nil {
				return err
			}
			p, err := processor.New(cfg.ProcessorConfig(opts.dryRun))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			input, output := roots(args)
			run := func() error {
				if _, err := p.Process(input, output); err != nil {
					return err
				}
				printSummary(out, p, input, output, opts.dryRun)
				return nil
			}
			if err := run(); err != nil {
				return fmt.Errorf(MsgErrProcess, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, _ = fmt.Fprintf(out, MsgWatchStarted, styled(out, pathStyle, input))
			return watcher.Watch(ctx, input, cfg.Watch.Debounce, run,
				watcher.WithIgnore(output),
				watcher.WithSkip(p.Generated),
				watcher.WithRunResult(func(err error) {
					if err != nil {
						_, _ = fmt.Fprint(cmd.ErrOrStderr(), styled(cmd.ErrOrStderr(), errorStyle, fmt.Sprintf(MsgWatchRunFailed, err)))
					}
				}),
			)
		},
	}

	flags.register(cmd)

	return cmd
}

func newSettingsCmd(opts *globalOptions) *cobra.Command {
	var (
		flags  packFlags
		format string
	)

	cmd := &cobra.Command{
		Use:     "settings <input> <dir>",
		Short:   MsgSettingsShort,
		Long:    MsgSettingsLong,
		Example: MsgSettingsExample,
		GroupID: "config",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, flags.overrides(cmd))
			if err != nil {
				return err
			}
			p, err := processor.New(cfg.ProcessorConfig(true))
			if err != nil {
				return err
			}

			s, err := p.ResolveSettings(args[0], args[1])
			if err != nil {
				return err
			}
			data, err := config.Render(s, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", config.FormatTOML, MsgFlagFormat)

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
		},
	}
}

func printSummary(w io.Writer, p *processor.Processor, inputRoot, outputRoot string, dryRun bool) {
	if removed := p.Removed(); len(removed) > 0 {
		_, _ = fmt.Fprintf(w, MsgRemovedFormat, len(removed), plural(len(removed), "", "s"))
	}

	packed := p.Packed()
	if len(packed) == 0 {
		_, _ = fmt.Fprintln(w, MsgNothingPacked)
	} else {
		_, _ = fmt.Fprintf(w, MsgPackedFormat, len(packed), plural(len(packed), "y", "ies"))
		for _, u := range packed {
			_, _ = fmt.Fprintf(w, MsgPackedItem,
				styled(w, pathStyle, relativeTo(inputRoot, u.Dir)),
				styled(w, successStyle, relativeTo(outputRoot, filepath.Join(u.OutputDir, u.ImageName))),
				len(u.Images), plural(len(u.Images), "", "s"))
		}
	}

	if dryRun {
		_, _ = fmt.Fprintln(w, styled(w, noticeStyle, MsgDryRunNotice))
	}
}

func relativeTo(base, path string) string {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(absBase, path)
	if err != nil {
		return path
	}
	return rel
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
