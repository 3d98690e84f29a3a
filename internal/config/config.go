package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/inactive/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "inactive.json"

	// YAMLConfigFileName is the name of the YAML configuration file. It is
	// used when no inactive.json exists.
	YAMLConfigFileName = "inactive.yaml"

	// DefaultPort is the default development server port.
	DefaultPort = 3000

	// DefaultHost is the default development server host.
	DefaultHost = "localhost"

	// DefaultOutput is the default build output directory.
	DefaultOutput = "dist"

	// DefaultPackage is the default application main package.
	DefaultPackage = "."

	// DefaultStatic is the default static files directory.
	DefaultStatic = "public"
)

// Config represents the complete inactive.json configuration.
type Config struct {
	// App describes the application being built.
	App AppConfig `json:"app" yaml:"app"`

	// Static contains static file configuration.
	Static StaticConfig `json:"static,omitempty" yaml:"static,omitempty"`

	// Dev contains development server configuration.
	Dev DevConfig `json:"dev,omitempty" yaml:"dev,omitempty"`

	// Build contains WebAssembly build configuration.
	Build BuildConfig `json:"build,omitempty" yaml:"build,omitempty"`

	// Deploy contains static hosting configuration.
	Deploy DeployConfig `json:"deploy,omitempty" yaml:"deploy,omitempty"`

	// Log contains logging configuration for the CLI.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// AppConfig describes the application.
type AppConfig struct {
	// Name is the application name. Defaults to the last element of the
	// module path.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Package is the main package compiled to WebAssembly.
	Package string `json:"package,omitempty" yaml:"package,omitempty"`

	// Title is the <title> of the generated index.html.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// StaticConfig contains static file configuration.
type StaticConfig struct {
	// Dir is copied into the build output as-is.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Port is the port to run the dev server on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// OpenBrowser opens the browser automatically on start.
	OpenBrowser bool `json:"openBrowser,omitempty" yaml:"openBrowser,omitempty"`

	// HotReload reloads connected browsers after each rebuild.
	HotReload bool `json:"hotReload,omitempty" yaml:"hotReload,omitempty"`

	// Watch contains paths to watch for changes.
	Watch []string `json:"watch,omitempty" yaml:"watch,omitempty"`

	// Ignore contains patterns to ignore during watch.
	Ignore []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`

	// Metrics serves Prometheus metrics at /_inactive/metrics.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Tracing records OpenTelemetry spans for requests and builds.
	Tracing bool `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// BuildConfig contains WebAssembly build settings.
type BuildConfig struct {
	// Output is the output directory for builds.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// StripSymbols strips debug symbols from the binary (-ldflags="-s -w").
	StripSymbols bool `json:"stripSymbols,omitempty" yaml:"stripSymbols,omitempty"`

	// Hash adds a content hash to the wasm file name.
	Hash bool `json:"hash,omitempty" yaml:"hash,omitempty"`

	// LDFlags are additional linker flags for go build.
	LDFlags string `json:"ldflags,omitempty" yaml:"ldflags,omitempty"`

	// Tags are build tags to pass to go build.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// DeployConfig contains S3-compatible static hosting settings.
type DeployConfig struct {
	// Bucket is the destination bucket.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`

	// Prefix is prepended to every object key.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Region is the bucket region. Defaults to $AWS_REGION.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, e.g. for MinIO or R2.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// PathStyle forces path-style bucket addressing.
	PathStyle bool `json:"pathStyle,omitempty" yaml:"pathStyle,omitempty"`

	// CacheControl is used for files whose name carries no content hash.
	CacheControl string `json:"cacheControl,omitempty" yaml:"cacheControl,omitempty"`
}

// LogConfig configures CLI logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		App: AppConfig{
			Package: DefaultPackage,
		},
		Static: StaticConfig{
			Dir: DefaultStatic,
		},
		Dev: DevConfig{
			Port:      DefaultPort,
			Host:      DefaultHost,
			HotReload: true,
			Watch:     []string{"."},
			Ignore:    []string{DefaultOutput},
			Metrics:   true,
		},
		Build: BuildConfig{
			Output:       DefaultOutput,
			StripSymbols: true,
		},
		Deploy: DeployConfig{
			CacheControl: "no-cache",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// inactive.json, then inactive.yaml.
func Load(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E121").
		WithDetail("No " + ConfigFileName + " or " + YAMLConfigFileName + " found in " + dir).
		WithSuggestion("Run 'inactive init' to create one")
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are parsed as YAML, anything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E121").
				WithDetail("No " + filepath.Base(path) + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'inactive init' to create one")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, as YAML or JSON
// depending on the extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		if mod, err := ModulePath(c.Dir()); err == nil {
			c.App.Name = DefaultAppName(mod, c.Dir())
		} else {
			c.App.Name = filepath.Base(c.absDir())
		}
	}
	if c.App.Package == "" {
		c.App.Package = DefaultPackage
	}
	if c.App.Title == "" {
		c.App.Title = c.App.Name
	}

	if c.Static.Dir == "" {
		c.Static.Dir = DefaultStatic
	}

	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.Watch == nil {
		c.Dev.Watch = []string{"."}
	}

	if c.Build.Output == "" {
		c.Build.Output = DefaultOutput
	}

	if c.Deploy.CacheControl == "" {
		c.Deploy.CacheControl = "no-cache"
	}
	if c.Deploy.Region == "" {
		c.Deploy.Region = os.Getenv("AWS_REGION")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New("E122").
			WithDetail("Port must be between 0 and 65535, got " + strconv.Itoa(c.Dev.Port))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return errors.New("E123").
			WithDetailf("%q", c.Log.Level).
			WithSuggestion("Use one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return errors.New("E120").WithDetailf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// DevAddress returns the address string for the dev server.
func (c *Config) DevAddress() string {
	return c.Dev.Host + ":" + strconv.Itoa(c.Dev.Port)
}

// DevURL returns the full URL for the dev server.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}

// OutputPath returns the absolute path to the build output directory.
func (c *Config) OutputPath() string {
	return c.resolve(c.Build.Output)
}

// StaticPath returns the absolute path to the static files directory.
func (c *Config) StaticPath() string {
	return c.resolve(c.Static.Dir)
}

// PackagePath returns the path of the main package, relative to Dir when
// not absolute.
func (c *Config) PackagePath() string {
	return c.resolve(c.App.Package)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

func (c *Config) absDir() string {
	dir, err := filepath.Abs(c.Dir())
	if err != nil {
		return c.Dir()
	}
	return dir
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing the config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E121").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'inactive init' to create one")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}

// ModulePath reads the module path from dir/go.mod.
func ModulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", errors.New("E121").WithDetail("go.mod not readable").Wrap(err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", errors.New("E120").WithDetail("go.mod has no module directive")
	}
	return path, nil
}

// DefaultAppName is the last element of the module path without a major
// version suffix, or the directory name when the path is unusable.
func DefaultAppName(modulePath, dir string) string {
	name := filepath.Base(dir)
	if prefix, _, ok := module.SplitPathVersion(modulePath); ok && prefix != "" {
		parts := strings.Split(prefix, "/")
		name = parts[len(parts)-1]
	}
	return name
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
