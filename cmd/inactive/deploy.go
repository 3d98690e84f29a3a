package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/inactive/internal/build"
	"github.com/vango-dev/inactive/internal/deploy"
)

type deployOptions struct {
	bucket      string
	prefix      string
	dryRun      bool
	build       bool
	concurrency int
}

func deployCmd(g *globals) *cobra.Command {
	var opts deployOptions

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Upload the build output to S3-compatible storage",
		Long: `Upload the build output to an S3-compatible bucket.

Hashed files are uploaded with an immutable Cache-Control header,
everything else with deploy.cacheControl. index.html is uploaded last.

Credentials and region come from the standard AWS chain: environment
variables, ~/.aws/credentials and ~/.aws/config (AWS_PROFILE), SSO or an
instance role. deploy.region overrides the region.

Examples:
  inactive deploy
  inactive deploy --build --bucket=my-site
  inactive deploy --prefix=preview/42 --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd.Context(), g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.bucket, "bucket", "", "Destination bucket (default from config)")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "Object key prefix (default from config)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "List the uploads without performing them")
	cmd.Flags().BoolVar(&opts.build, "build", false, "Run a production build first")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", deploy.DefaultConcurrency, "Parallel uploads")

	return cmd
}

func runDeploy(ctx context.Context, g *globals, opts deployOptions) error {
	cfg, err := loadProject(g)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.build {
		info("Building...")
		if _, err := build.New(cfg, build.Options{}).Build(ctx); err != nil {
			return err
		}
	}

	var client deploy.Client
	if !opts.dryRun {
		c, err := deploy.NewClient(ctx, cfg)
		if err != nil {
			return err
		}
		client = c
	}

	deployer := deploy.New(cfg, client, deploy.Options{
		Bucket:      opts.bucket,
		Prefix:      opts.prefix,
		DryRun:      opts.dryRun,
		Concurrency: opts.concurrency,
		OnUpload: func(o deploy.Object) {
			info("%s  %s", o.Key, formatBytes(o.Size))
		},
	})

	result, err := deployer.Deploy(ctx)
	if err != nil {
		return err
	}

	if opts.dryRun {
		for _, o := range result.Objects {
			info("%-40s %-28s %s", o.Key, o.ContentType, o.CacheControl)
		}
		fmt.Fprintln(stdout)
		success("Dry run: %d objects, %s", len(result.Objects), formatBytes(result.Bytes))
		return nil
	}

	fmt.Fprintln(stdout)
	success("Deployed %d objects (%s) in %s", len(result.Objects), formatBytes(result.Bytes), result.Duration.Round(time.Millisecond))
	return nil
}
