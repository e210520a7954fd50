package main

import (
	"context"
	"os"

	"github.com/arthur-debert/texpack/cmd/texpack"
	"github.com/arthur-debert/texpack/internal/version"
	"github.com/charmbracelet/fang"
)

func main() {
	rootCmd := texpack.NewRootCmd()
	if err := fang.Execute(context.Background(), rootCmd,
		fang.WithVersion(version.Version),
		fang.WithCommit(version.Commit),
	); err != nil {
		os.Exit(1)
	}
}
