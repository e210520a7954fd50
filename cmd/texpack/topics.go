package texpack

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/arthur-debert/texpack/pkg/topics"
	"github.com/spf13/cobra"
)

//go:embed topics/*.md
var topicFiles embed.FS

func loadTopics(w io.Writer) (*topics.Manager, error) {
	sub, err := fs.Sub(topicFiles, "topics")
	if err != nil {
		return nil, err
	}
	var renderer topics.Renderer = &topics.PlainRenderer{}
	if f, ok := w.(*os.File); ok {
		renderer = topics.DetectRenderer(f)
	}
	return topics.Load(sub, topics.Options{Renderer: renderer})
}

func newTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "topics [topic]",
		Short:   MsgTopicsShort,
		Long:    MsgTopicsLong,
		GroupID: "misc",
		Args:    cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			m, err := loadTopics(io.Discard)
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			return m.Names(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			m, err := loadTopics(out)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				_, _ = fmt.Fprintln(out, MsgTopicsHeader)
				for _, name := range m.Names() {
					_, _ = fmt.Fprintf(out, MsgTopicItem, name)
				}
				_, _ = fmt.Fprintln(out, MsgTopicsFooter)
				return nil
			}

			rendered, err := m.Render(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(out, rendered)
			return err
		},
	}
}
