package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/inactive/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬┌┐┌┌─┐┌─┐┌┬┐┬┬  ┬┌─┐
  ││││├─┤│   │ │└┐┌┘├┤
  ┴┘└┘┴ ┴└─┘ ┴ ┴ └┘ └─┘
`

// globals holds flags shared by every command.
type globals struct {
	dir      string
	logLevel string
	verbose  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "inactive",
		Short: "Build browser apps from Go element trees",
		Long: `inactive builds real DOM nodes from Go element trees and ships
them to the browser as WebAssembly.

  • createElement with a fixed prop rule table
  • lifecycle callbacks driven by a MutationObserver
  • refs and fragments
  • dev server with hot reload
  • static deploys to S3-compatible storage`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.dir, "dir", "C", "", "Project directory (default: nearest directory with inactive.json)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Shorthand for --log-level=debug")

	rootCmd.AddCommand(
		initCmd(g),
		devCmd(g),
		buildCmd(g),
		deployCmd(g),
		versionCmd(),
	)

	return rootCmd
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Fprint(stdout, bannerStyle.Render(banner))
	fmt.Fprintln(stdout)
}
