package build

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/inactive/internal/config"
	"github.com/vango-dev/inactive/internal/errors"
)

const (
	// WasmName is the unhashed name of the compiled module.
	WasmName = "app.wasm"

	// WasmExecName is the name of the Go JavaScript support file.
	WasmExecName = "wasm_exec.js"

	// IndexName is the name of the generated HTML entry point.
	IndexName = "index.html"

	// ManifestName is the name of the asset manifest.
	ManifestName = "manifest.json"
)

// Result contains the build output.
type Result struct {
	// Duration is how long the build took.
	Duration time.Duration

	// Output is the build output directory.
	Output string

	// Wasm is the path to the compiled module.
	Wasm string

	// Manifest maps logical asset names to their output-relative paths.
	Manifest map[string]string

	// WasmSize is the size of the module in bytes.
	WasmSize int64

	// WasmGzipSize is the gzipped size of the module.
	WasmGzipSize int64
}

// Options configures the builder.
type Options struct {
	// GoCommand is the go binary to run. Defaults to "go".
	GoCommand string

	// GOROOT locates wasm_exec.js. Defaults to `go env GOROOT`.
	GOROOT string

	// StripSymbols strips debug information from the module.
	StripSymbols bool

	// Hash adds a content hash to the module file name.
	Hash bool

	// LDFlags are linker flags for go build.
	LDFlags string

	// Tags are build tags.
	Tags []string

	// Inject is extra markup placed at the end of <head> in index.html.
	Inject template.HTML

	// Logger receives build logs.
	Logger *slog.Logger

	// Tracer records a span per build and per step. Defaults to the global
	// otel tracer provider.
	Tracer trace.Tracer

	// OnProgress is called with progress updates.
	OnProgress func(step string)
}

// Builder compiles an application to WebAssembly and lays out a static
// site around it.
type Builder struct {
	config  *config.Config
	options Options
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New creates a new builder.
func New(cfg *config.Config, options Options) *Builder {
	// Apply config defaults to options
	if !options.StripSymbols && cfg.Build.StripSymbols {
		options.StripSymbols = true
	}
	if !options.Hash && cfg.Build.Hash {
		options.Hash = true
	}
	if options.LDFlags == "" && cfg.Build.LDFlags != "" {
		options.LDFlags = cfg.Build.LDFlags
	}
	if len(options.Tags) == 0 && len(cfg.Build.Tags) > 0 {
		options.Tags = cfg.Build.Tags
	}
	if options.GoCommand == "" {
		options.GoCommand = "go"
	}

	b := &Builder{
		config:  cfg,
		options: options,
		logger:  options.Logger,
		tracer:  options.Tracer,
	}
	if b.logger == nil {
		b.logger = slog.Default().With("component", "build")
	}
	if b.tracer == nil {
		b.tracer = otel.Tracer("github.com/vango-dev/inactive/internal/build")
	}
	return b
}

// Build performs a full build.
func (b *Builder) Build(ctx context.Context) (res *Result, err error) {
	ctx, span := b.tracer.Start(ctx, "build",
		trace.WithAttributes(attribute.String("app.package", b.config.App.Package)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	start := time.Now()
	result := &Result{
		Output:   b.config.OutputPath(),
		Manifest: make(map[string]string),
	}

	b.progress("Cleaning output directory...")
	if err := os.RemoveAll(result.Output); err != nil {
		return nil, errors.New("E142").Wrap(err)
	}
	if err := os.MkdirAll(result.Output, 0755); err != nil {
		return nil, errors.New("E142").Wrap(err)
	}

	b.progress("Compiling WebAssembly...")
	wasmPath := filepath.Join(result.Output, WasmName)
	if err := b.step(ctx, "compile", func(ctx context.Context) error {
		return b.buildWasm(ctx, wasmPath)
	}); err != nil {
		return nil, err
	}

	if b.options.Hash {
		hash, err := hashFile(wasmPath)
		if err != nil {
			return nil, errors.New("E142").Wrap(err)
		}
		hashed := filepath.Join(result.Output, hashedName(WasmName, hash))
		if err := os.Rename(wasmPath, hashed); err != nil {
			return nil, errors.New("E142").Wrap(err)
		}
		wasmPath = hashed
	}
	result.Wasm = wasmPath
	result.Manifest[WasmName] = filepath.Base(wasmPath)

	b.progress("Copying " + WasmExecName + "...")
	if err := b.step(ctx, "wasm_exec", func(ctx context.Context) error {
		return b.copyWasmExec(ctx, result.Output)
	}); err != nil {
		return nil, err
	}
	result.Manifest[WasmExecName] = WasmExecName

	b.progress("Copying static assets...")
	if err := b.step(ctx, "static", func(context.Context) error {
		return b.copyStatic(result.Output, result.Manifest)
	}); err != nil {
		return nil, err
	}

	b.progress("Rendering " + IndexName + "...")
	if err := b.writeIndex(result.Output, result.Manifest); err != nil {
		return nil, err
	}
	result.Manifest[IndexName] = IndexName

	b.progress("Writing manifest...")
	if err := b.writeManifest(result.Output, result.Manifest); err != nil {
		return nil, err
	}

	if info, err := os.Stat(wasmPath); err == nil {
		result.WasmSize = info.Size()
	}
	result.WasmGzipSize, _ = gzipSize(wasmPath)
	result.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int64("wasm.size", result.WasmSize),
		attribute.Int64("wasm.gzip_size", result.WasmGzipSize),
	)
	b.logger.Info("build finished",
		"output", result.Output,
		"wasm", result.Manifest[WasmName],
		"size", result.WasmSize,
		"gzip", result.WasmGzipSize,
		"duration", result.Duration)
	return result, nil
}

// buildWasm compiles the application package.
func (b *Builder) buildWasm(ctx context.Context, output string) error {
	goBin, err := exec.LookPath(b.options.GoCommand)
	if err != nil {
		return errors.New("E140").Wrap(err)
	}

	cmd := exec.CommandContext(ctx, goBin, b.buildArgs(output)...)
	cmd.Dir = b.config.Dir()
	cmd.Env = append(os.Environ(), "GOOS=js", "GOARCH=wasm", "CGO_ENABLED=0")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	b.logger.Debug("compiling", "args", cmd.Args, "dir", cmd.Dir)
	if err := cmd.Run(); err != nil {
		return errors.New("E141").
			WithDetail(stderr.String()).
			WithLocationFromOutput(stderr.String()).
			Wrap(err)
	}
	return nil
}

func (b *Builder) buildArgs(output string) []string {
	args := []string{"build", "-o", output, "-trimpath"}

	var ldflags []string
	if b.options.LDFlags != "" {
		ldflags = append(ldflags, b.options.LDFlags)
	}
	if b.options.StripSymbols {
		ldflags = append(ldflags, "-s -w")
	}
	if len(ldflags) > 0 {
		args = append(args, "-ldflags", strings.Join(ldflags, " "))
	}

	if len(b.options.Tags) > 0 {
		args = append(args, "-tags", strings.Join(b.options.Tags, ","))
	}

	pkg := b.config.App.Package
	if pkg == "" {
		pkg = config.DefaultPackage
	}
	return append(args, pkg)
}

// copyWasmExec copies the wasm_exec.js that matches the toolchain.
func (b *Builder) copyWasmExec(ctx context.Context, outputDir string) error {
	root, err := b.goroot(ctx)
	if err != nil {
		return err
	}
	for _, dir := range []string{"lib", "misc"} {
		src := filepath.Join(root, dir, "wasm", WasmExecName)
		if _, err := os.Stat(src); err == nil {
			return copyFile(src, filepath.Join(outputDir, WasmExecName))
		}
	}
	return errors.New("E143").WithDetail("searched " + root + "/lib/wasm and " + root + "/misc/wasm")
}

func (b *Builder) goroot(ctx context.Context) (string, error) {
	if b.options.GOROOT != "" {
		return b.options.GOROOT, nil
	}
	out, err := exec.CommandContext(ctx, b.options.GoCommand, "env", "GOROOT").Output()
	if err != nil {
		return "", errors.New("E140").Wrap(err)
	}
	return strings.TrimSpace(string(out)), nil
}

// copyStatic copies the static directory into the output as-is. A static
// index.html is used as the index template instead of the built-in one.
func (b *Builder) copyStatic(outputDir string, manifest map[string]string) error {
	srcDir := b.config.StaticPath()
	if _, err := os.Stat(srcDir); os.IsNotExist(err) {
		return nil // No static directory
	}

	return filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if relPath == IndexName {
			return nil
		}

		destPath := filepath.Join(outputDir, relPath)
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return errors.New("E142").Wrap(err)
		}
		if err := copyFile(path, destPath); err != nil {
			return errors.New("E142").Wrap(err)
		}

		manifest[filepath.ToSlash(relPath)] = filepath.ToSlash(relPath)
		return nil
	})
}

// SyncStatic mirrors one static file, named relative to the static
// directory, into the output directory. A missing source removes the copy.
func (b *Builder) SyncStatic(rel string) error {
	src := filepath.Join(b.config.StaticPath(), rel)
	dst := filepath.Join(b.config.OutputPath(), rel)

	if _, err := os.Stat(src); os.IsNotExist(err) {
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			return errors.New("E142").Wrap(err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.New("E142").Wrap(err)
	}
	if err := copyFile(src, dst); err != nil {
		return errors.New("E142").Wrap(err)
	}
	return nil
}

// indexData is the data passed to the index.html template.
type indexData struct {
	Title    string
	Wasm     string
	WasmExec string
	Inject   template.HTML
}

const defaultIndex = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<script src="{{.WasmExec}}"></script>
{{.Inject}}
</head>
<body>
<script>
const go = new Go();
WebAssembly.instantiateStreaming(fetch({{.Wasm}}), go.importObject).then((r) => go.run(r.instance));
</script>
</body>
</html>
`

// writeIndex renders index.html.
func (b *Builder) writeIndex(outputDir string, manifest map[string]string) error {
	src := defaultIndex
	if data, err := os.ReadFile(filepath.Join(b.config.StaticPath(), IndexName)); err == nil {
		src = string(data)
	}

	tmpl, err := template.New(IndexName).Parse(src)
	if err != nil {
		return errors.New("E142").WithDetail("invalid " + IndexName + " template: " + err.Error())
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, indexData{
		Title:    b.config.App.Title,
		Wasm:     manifest[WasmName],
		WasmExec: manifest[WasmExecName],
		Inject:   b.options.Inject,
	}); err != nil {
		return errors.New("E142").Wrap(err)
	}

	return os.WriteFile(filepath.Join(outputDir, IndexName), buf.Bytes(), 0644)
}

// writeManifest writes the asset manifest.
func (b *Builder) writeManifest(outputDir string, manifest map[string]string) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}

	manifestPath := filepath.Join(outputDir, ManifestName)
	return os.WriteFile(manifestPath, data, 0644)
}

// step runs fn inside a child span.
func (b *Builder) step(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := b.tracer.Start(ctx, "build."+name)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// progress reports build progress.
func (b *Builder) progress(step string) {
	if b.options.OnProgress != nil {
		b.options.OnProgress(step)
	}
}

// hashedName inserts the first 8 hex digits of hash before the extension.
func hashedName(name, hash string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s.%s%s", base, hash[:8], ext)
}

// hashFile returns the SHA256 hash of a file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// gzipSize returns the size of the file after gzip compression.
func gzipSize(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var c counter
	zw, err := gzip.NewWriterLevel(&c, gzip.BestCompression)
	if err != nil {
		return 0, err
	}
	if _, err := io.Copy(zw, f); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	return c.n, nil
}

type counter struct{ n int64 }

func (c *counter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

// copyFile copies a file.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// Clean removes the build output directory.
func (b *Builder) Clean() error {
	return os.RemoveAll(b.config.OutputPath())
}
