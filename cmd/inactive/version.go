package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version, commit, and build information for the inactive CLI.`,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Fprintln(stdout, version)
				return
			}

			printBanner()
			field("Version", version)
			field("Commit", commit)
			field("Built", date)
			field("Go version", runtime.Version())
			field("OS/Arch", runtime.GOOS+"/"+runtime.GOARCH)
			fmt.Fprintln(stdout)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}
