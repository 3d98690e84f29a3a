package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/inactive/internal/config"
	"github.com/vango-dev/inactive/internal/errors"
)

type initOptions struct {
	name  string
	title string
	pkg   string
	yaml  bool
	force bool
}

func initCmd(g *globals) *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create inactive.json in a Go module",
		Long: `Create an inactive configuration file and static directory.

The application name defaults to the last element of the module path
in go.mod.

Examples:
  inactive init
  inactive init ./web --title="Todo"
  inactive init --yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := g.dir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				dir = "."
			}
			return runInit(dir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Application name (default from go.mod)")
	cmd.Flags().StringVar(&opts.title, "title", "", "Page title (default: name)")
	cmd.Flags().StringVar(&opts.pkg, "package", config.DefaultPackage, "Main package compiled to WebAssembly")
	cmd.Flags().BoolVar(&opts.yaml, "yaml", false, "Write inactive.yaml instead of inactive.json")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Overwrite an existing configuration")

	return cmd
}

func runInit(dir string, opts initOptions) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.New("E120").Wrap(err)
	}
	if config.Exists(dir) && !opts.force {
		return errors.New("E124").WithDetail("Found an existing configuration in " + dir)
	}

	cfg := config.New()
	cfg.App.Name = opts.name
	cfg.App.Title = opts.title
	cfg.App.Package = opts.pkg

	if cfg.App.Name == "" {
		if _, err := config.ModulePath(dir); err != nil {
			warn("No go.mod in %s; run 'go mod init' before building", dir)
		}
	}

	name := config.ConfigFileName
	if opts.yaml {
		name = config.YAMLConfigFileName
	}
	path := filepath.Join(dir, name)
	if err := cfg.SaveTo(path); err != nil {
		return err
	}

	static := filepath.Join(dir, cfg.Static.Dir)
	if err := os.MkdirAll(static, 0755); err != nil {
		return errors.New("E120").Wrap(err)
	}

	success("Created %s", path)
	info("Static files go in %s", static)
	info("Run 'inactive dev' to start the development server")
	return nil
}
