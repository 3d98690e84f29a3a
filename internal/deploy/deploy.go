package deploy

import (
	"context"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/inactive/internal/config"
	"github.com/vango-dev/inactive/internal/errors"
)

const (
	// ImmutableCacheControl is used for content-hashed files.
	ImmutableCacheControl = "public, max-age=31536000, immutable"

	// IndexCacheControl is used for index.html.
	IndexCacheControl = "no-cache"

	// DefaultConcurrency is the number of parallel uploads.
	DefaultConcurrency = 4
)

// hashedName matches names like app.3f9a1c2e.wasm.
var hashedName = regexp.MustCompile(`\.[0-9a-f]{8,}\.[^.]+$`)

// Client is the part of the S3 API used for deploys.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Object is one planned upload.
type Object struct {
	// Path is the local file.
	Path string

	// Key is the object key, including the prefix.
	Key string

	ContentType  string
	CacheControl string
	Size         int64
}

// Result summarizes a deploy.
type Result struct {
	Objects  []Object
	Bytes    int64
	Duration time.Duration
}

// Options configures a Deployer.
type Options struct {
	// Bucket overrides deploy.bucket.
	Bucket string

	// Prefix overrides deploy.prefix.
	Prefix string

	// DryRun plans without uploading.
	DryRun bool

	// Concurrency is the number of parallel uploads.
	Concurrency int

	// Logger receives deploy logs.
	Logger *slog.Logger

	// Tracer records a span per deploy and per object.
	Tracer trace.Tracer

	// OnUpload is called after each object is uploaded.
	OnUpload func(Object)
}

// Deployer uploads the build output of one project.
type Deployer struct {
	config  *config.Config
	client  Client
	options Options
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New creates a deployer.
func New(cfg *config.Config, client Client, options Options) *Deployer {
	if options.Bucket == "" {
		options.Bucket = cfg.Deploy.Bucket
	}
	if options.Prefix == "" {
		options.Prefix = cfg.Deploy.Prefix
	}
	if options.Concurrency <= 0 {
		options.Concurrency = DefaultConcurrency
	}

	d := &Deployer{
		config:  cfg,
		client:  client,
		options: options,
		logger:  options.Logger,
		tracer:  options.Tracer,
	}
	if d.logger == nil {
		d.logger = slog.Default().With("component", "deploy")
	}
	if d.tracer == nil {
		d.tracer = otel.Tracer("github.com/vango-dev/inactive/internal/deploy")
	}
	return d
}

// Plan lists the objects a deploy would upload, with index.html last.
func (d *Deployer) Plan() ([]Object, error) {
	root := d.config.OutputPath()
	if _, err := os.Stat(root); err != nil {
		return nil, errors.New("E150").
			WithDetail("build output " + root + " not found").
			WithSuggestion("Run 'inactive build' first")
	}

	var objects []Object
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		objects = append(objects, Object{
			Path:         p,
			Key:          d.key(rel),
			ContentType:  ContentType(rel),
			CacheControl: d.cacheControl(rel),
			Size:         info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, errors.New("E150").Wrap(err)
	}

	sort.SliceStable(objects, func(i, j int) bool {
		ii, jj := isIndex(objects[i].Key), isIndex(objects[j].Key)
		if ii != jj {
			return jj
		}
		return objects[i].Key < objects[j].Key
	})
	return objects, nil
}

// Deploy uploads the build output. Everything except index.html is
// uploaded in parallel first.
func (d *Deployer) Deploy(ctx context.Context) (res *Result, err error) {
	if d.options.Bucket == "" {
		return nil, errors.New("E151")
	}

	ctx, span := d.tracer.Start(ctx, "deploy", trace.WithAttributes(
		attribute.String("deploy.bucket", d.options.Bucket),
		attribute.String("deploy.prefix", d.options.Prefix),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	start := time.Now()
	objects, err := d.Plan()
	if err != nil {
		return nil, err
	}

	result := &Result{Objects: objects}
	for _, o := range objects {
		result.Bytes += o.Size
	}
	if d.options.DryRun {
		result.Duration = time.Since(start)
		return result, nil
	}

	var assets, entries []Object
	for _, o := range objects {
		if isIndex(o.Key) {
			entries = append(entries, o)
		} else {
			assets = append(assets, o)
		}
	}
	if err := d.uploadAll(ctx, assets); err != nil {
		return nil, err
	}
	if err := d.uploadAll(ctx, entries); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	d.logger.Info("deploy finished",
		"bucket", d.options.Bucket,
		"objects", len(objects),
		"bytes", result.Bytes,
		"duration", result.Duration)
	return result, nil
}

// uploadAll uploads objects with bounded concurrency and returns the first
// error.
func (d *Deployer) uploadAll(ctx context.Context, objects []Object) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
		sem      = make(chan struct{}, d.options.Concurrency)
	)
	for _, o := range objects {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(o Object) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := d.upload(ctx, o); err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(o)
	}
	wg.Wait()

	if firstErr == nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return firstErr
}

func (d *Deployer) upload(ctx context.Context, o Object) error {
	ctx, span := d.tracer.Start(ctx, "deploy.put", trace.WithAttributes(
		attribute.String("s3.key", o.Key),
		attribute.Int64("s3.size", o.Size),
	))
	defer span.End()

	f, err := os.Open(o.Path)
	if err != nil {
		return errors.New("E150").Wrap(err)
	}
	defer f.Close()

	_, err = d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(d.options.Bucket),
		Key:           aws.String(o.Key),
		Body:          f,
		ContentLength: aws.Int64(o.Size),
		ContentType:   aws.String(o.ContentType),
		CacheControl:  aws.String(o.CacheControl),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errors.New("E150").WithDetail(o.Key).Wrap(err)
	}

	d.logger.Debug("uploaded", "key", o.Key, "size", o.Size)
	if d.options.OnUpload != nil {
		d.options.OnUpload(o)
	}
	return nil
}

func (d *Deployer) key(rel string) string {
	prefix := strings.Trim(d.options.Prefix, "/")
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

func (d *Deployer) cacheControl(rel string) string {
	switch {
	case path.Base(rel) == "index.html":
		return IndexCacheControl
	case hashedName.MatchString(path.Base(rel)):
		return ImmutableCacheControl
	default:
		return d.config.Deploy.CacheControl
	}
}

// ContentType returns the Content-Type for a file name.
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".wasm":
		return "application/wasm"
	case ".js", ".mjs":
		return "text/javascript; charset=utf-8"
	case "":
		return "application/octet-stream"
	}
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func isIndex(key string) bool {
	return path.Base(key) == "index.html"
}
