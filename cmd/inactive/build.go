package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/inactive/internal/build"
)

type buildOptions struct {
	output string
	hash   bool
	clean  bool
	tags   []string
}

func buildCmd(g *globals) *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build for production",
		Long: `Build the application for production deployment.

This command:
  • Compiles the main package for GOOS=js GOARCH=wasm
  • Copies wasm_exec.js from the Go installation
  • Copies static assets
  • Renders index.html and writes manifest.json

Examples:
  inactive build
  inactive build --output=public_html
  inactive build --hash`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), g, opts, cmd.Flags().Changed("hash"))
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output directory (default from config)")
	cmd.Flags().BoolVar(&opts.hash, "hash", false, "Add a content hash to the wasm file name")
	cmd.Flags().BoolVar(&opts.clean, "clean", false, "Remove the output directory and exit")
	cmd.Flags().StringSliceVar(&opts.tags, "tags", nil, "Additional build tags")

	return cmd
}

func runBuild(ctx context.Context, g *globals, opts buildOptions, hashSet bool) error {
	cfg, err := loadProject(g)
	if err != nil {
		return err
	}

	if opts.output != "" {
		cfg.Build.Output = opts.output
	}
	if hashSet {
		cfg.Build.Hash = opts.hash
	}
	cfg.Build.Tags = append(cfg.Build.Tags, opts.tags...)

	builder := build.New(cfg, build.Options{
		OnProgress: func(step string) {
			info("%s...", step)
		},
	})

	if opts.clean {
		if err := builder.Clean(); err != nil {
			return err
		}
		success("Removed %s", cfg.OutputPath())
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	printBanner()
	fmt.Fprintf(stdout, "  Building %s for production...\n\n", cfg.App.Name)

	result, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout)
	success("Built in %s", result.Duration.Round(time.Millisecond))
	fmt.Fprintln(stdout)
	field("Output", relPath(result.Output))
	field("Wasm", filepath.Base(result.Wasm))
	field("Size", fmt.Sprintf("%s (%s gzip)", formatBytes(result.WasmSize), formatBytes(result.WasmGzipSize)))
	field("Assets", len(result.Manifest))
	fmt.Fprintln(stdout)
	return nil
}

// relPath shortens p relative to the working directory when possible.
func relPath(p string) string {
	wd, err := os.Getwd()
	if err != nil {
		return p
	}
	if rel, err := filepath.Rel(wd, p); err == nil && !filepath.IsAbs(rel) && len(rel) < len(p) {
		return rel
	}
	return p
}
