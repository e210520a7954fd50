package genconfig

import (
	"fmt"
	"os"

	"github.com/arthur-debert/texpack/pkg/config"
	"github.com/arthur-debert/texpack/pkg/errors"
	"github.com/spf13/cobra"
)

// NewCommand creates the gen-config command
func NewCommand() *cobra.Command {
	var (
		write  bool
		format string
	)

	cmd := &cobra.Command{
		Use:     "gen-config",
		Short:   MsgShort,
		Long:    MsgLong,
		Example: MsgExample,
		GroupID: "config",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := Generate(format)
			if err != nil {
				return err
			}
			if !write {
				_, err = cmd.OutOrStdout().Write(content)
				return err
			}

			name := "texpack." + extension(format)
			if _, err := os.Stat(name); err == nil {
				return errors.Newf(errors.ErrInvalidInput, MsgFileExists, name).WithDetail("path", name)
			}
			if err := os.WriteFile(name, content, 0644); err != nil {
				return errors.Wrap(err, errors.ErrFileWrite, "failed to write config file").WithDetail("path", name)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), MsgWritten, name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, MsgFlagWrite)
	cmd.Flags().StringVarP(&format, "format", "f", config.FormatTOML, MsgFlagFormat)

	return cmd
}

// Generate returns the default configuration in format
func Generate(format string) ([]byte, error) {
	if extension(format) == config.FormatTOML {
		return []byte(config.GenerateConfigContent()), nil
	}
	cfg, err := config.Defaults()
	if err != nil {
		return nil, err
	}
	return config.Render(cfg, format)
}

func extension(format string) string {
	switch format {
	case "", config.FormatTOML:
		return config.FormatTOML
	case "yml":
		return config.FormatYAML
	}
	return format
}
