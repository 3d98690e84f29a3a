package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/inactive/internal/dev"
	"github.com/vango-dev/inactive/internal/errors"
)

type devOptions struct {
	port        int
	host        string
	openBrowser bool
	noReload    bool
}

func devCmd(g *globals) *cobra.Command {
	var opts devOptions

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Start the development server with hot reload.

The dev server watches for file changes, rebuilds the WebAssembly
module and refreshes connected browsers. Stylesheets in the static
directory are swapped without a reload.

Examples:
  inactive dev
  inactive dev --port=8080
  inactive dev --host=0.0.0.0 --open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(cmd.Context(), g, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to run on (default from config)")
	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().BoolVarP(&opts.openBrowser, "open", "o", false, "Open browser automatically")
	cmd.Flags().BoolVar(&opts.noReload, "no-reload", false, "Disable hot reload")

	return cmd
}

func runDev(ctx context.Context, g *globals, opts devOptions) error {
	cfg, err := loadProject(g)
	if err != nil {
		return err
	}

	if opts.port > 0 {
		cfg.Dev.Port = opts.port
	}
	if opts.host != "" {
		cfg.Dev.Host = opts.host
	}
	if opts.openBrowser {
		cfg.Dev.OpenBrowser = true
	}
	if opts.noReload {
		cfg.Dev.HotReload = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	printBanner()

	var started time.Time
	server := dev.NewServer(dev.ServerOptions{
		Config: cfg,
		OnBuildStart: func() {
			started = time.Now()
			info("Building...")
		},
		OnBuildComplete: func(result dev.BuildResult) {
			if result.Success {
				success("Built in %s", time.Since(started).Round(time.Millisecond))
				return
			}
			errorMsg("Build failed")
			if result.Error != nil {
				errors.Fprint(stderr, result.Error)
			}
		},
		OnReload: func(clients int) {
			if clients > 0 {
				info("Reloaded %d browser(s)", clients)
			}
		},
		OnListen: func(url string) {
			fmt.Fprintln(stdout)
			field("Local", urlStyle.Render(url))
			if cfg.Dev.Metrics {
				field("Metrics", urlStyle.Render(url+dev.MetricsPath))
			}
			fmt.Fprintln(stdout)
			info("Press Ctrl+C to stop")
			fmt.Fprintln(stdout)
			if cfg.Dev.OpenBrowser {
				openURL(url)
			}
		},
	})

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = server.Start(ctx)
	fmt.Fprintln(stdout, "\n  Shutting down...")
	return err
}

// openURL opens a URL in the default browser.
func openURL(url string) {
	var cmd *exec.Cmd

	switch {
	case commandExists("xdg-open"):
		cmd = exec.Command("xdg-open", url)
	case commandExists("open"):
		cmd = exec.Command("open", url)
	case commandExists("rundll32"):
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return
	}

	if err := cmd.Start(); err == nil {
		go cmd.Wait()
	}
}

// commandExists checks if a command exists in PATH.
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
