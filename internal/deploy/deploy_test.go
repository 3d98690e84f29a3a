package deploy

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/inactive/internal/config"
)

type put struct {
	Bucket, Key, ContentType, CacheControl, Body string
}

type fakeClient struct {
	mu   sync.Mutex
	puts []put
	fail string
}

func (f *fakeClient) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	if key == f.fail {
		return nil, stderrors.New("access denied")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, put{
		Bucket:       aws.ToString(in.Bucket),
		Key:          key,
		ContentType:  aws.ToString(in.ContentType),
		CacheControl: aws.ToString(in.CacheControl),
		Body:         string(body),
	})
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeClient) byKey() map[string]put {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := make(map[string]put, len(f.puts))
	for _, p := range f.puts {
		m[p.Key] = p
	}
	return m
}

func newProject(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.New()
	cfg.Deploy.Bucket = "site"
	if err := cfg.SaveTo(filepath.Join(dir, config.ConfigFileName)); err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		"index.html":        "<html></html>",
		"app.3f9a1c2e.wasm": "\x00asm",
		"wasm_exec.js":      "// go",
		"manifest.json":     "{}",
		"css/site.css":      "body{}",
	}
	for name, content := range files {
		p := filepath.Join(dir, "dist", filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return cfg
}

func TestDeploy(t *testing.T) {
	cfg := newProject(t)
	client := &fakeClient{}

	var uploaded []string
	var mu sync.Mutex
	d := New(cfg, client, Options{
		Prefix: "/v2/",
		OnUpload: func(o Object) {
			mu.Lock()
			uploaded = append(uploaded, o.Key)
			mu.Unlock()
		},
	})
	result, err := d.Deploy(context.Background())
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	if len(result.Objects) != 5 {
		t.Fatalf("objects = %d, want 5", len(result.Objects))
	}
	if uploaded[len(uploaded)-1] != "v2/index.html" {
		t.Errorf("index.html should be uploaded last, order = %v", uploaded)
	}

	puts := client.byKey()
	tests := []struct {
		key          string
		contentType  string
		cacheControl string
	}{
		{"v2/index.html", "text/html; charset=utf-8", IndexCacheControl},
		{"v2/app.3f9a1c2e.wasm", "application/wasm", ImmutableCacheControl},
		{"v2/wasm_exec.js", "text/javascript; charset=utf-8", "no-cache"},
		{"v2/css/site.css", "text/css; charset=utf-8", "no-cache"},
		{"v2/manifest.json", "application/json", "no-cache"},
	}
	for _, tt := range tests {
		p, ok := puts[tt.key]
		if !ok {
			t.Errorf("%s not uploaded", tt.key)
			continue
		}
		if p.Bucket != "site" {
			t.Errorf("%s bucket = %q", tt.key, p.Bucket)
		}
		if p.ContentType != tt.contentType {
			t.Errorf("%s Content-Type = %q, want %q", tt.key, p.ContentType, tt.contentType)
		}
		if p.CacheControl != tt.cacheControl {
			t.Errorf("%s Cache-Control = %q, want %q", tt.key, p.CacheControl, tt.cacheControl)
		}
	}
	if puts["v2/css/site.css"].Body != "body{}" {
		t.Errorf("body = %q", puts["v2/css/site.css"].Body)
	}
}

func TestDeploy_DryRun(t *testing.T) {
	cfg := newProject(t)
	client := &fakeClient{}

	result, err := New(cfg, client, Options{DryRun: true}).Deploy(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(client.puts) != 0 {
		t.Errorf("dry run uploaded %d objects", len(client.puts))
	}
	if result.Objects[len(result.Objects)-1].Key != "index.html" {
		t.Errorf("plan should end with index.html, got %+v", result.Objects)
	}
	if result.Bytes == 0 {
		t.Error("Bytes should be summed")
	}
}

func TestDeploy_Errors(t *testing.T) {
	t.Run("missing bucket", func(t *testing.T) {
		cfg := newProject(t)
		cfg.Deploy.Bucket = ""
		_, err := New(cfg, &fakeClient{}, Options{}).Deploy(context.Background())
		if err == nil || !strings.Contains(err.Error(), "E151") {
			t.Errorf("err = %v, want E151", err)
		}
	})

	t.Run("missing output", func(t *testing.T) {
		cfg := newProject(t)
		cfg.Build.Output = "nowhere"
		_, err := New(cfg, &fakeClient{}, Options{}).Deploy(context.Background())
		if err == nil || !strings.Contains(err.Error(), "E150") {
			t.Errorf("err = %v, want E150", err)
		}
	})

	t.Run("upload failure keeps index", func(t *testing.T) {
		cfg := newProject(t)
		client := &fakeClient{fail: "app.3f9a1c2e.wasm"}
		_, err := New(cfg, client, Options{Concurrency: 1}).Deploy(context.Background())
		if err == nil || !strings.Contains(err.Error(), "E150") {
			t.Fatalf("err = %v, want E150", err)
		}
		if _, ok := client.byKey()["index.html"]; ok {
			t.Error("index.html must not be uploaded after a failed asset upload")
		}
	})
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"app.wasm":    "application/wasm",
		"x.mjs":       "text/javascript; charset=utf-8",
		"logo.svg":    "image/svg+xml",
		"LICENSE":     "application/octet-stream",
		"data.xyzabc": "application/octet-stream",
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}

// isolateAWS points the AWS SDK at files under a temp dir and clears every
// environment source, so only what the test writes is visible.
func isolateAWS(t *testing.T) (configFile, credentialsFile string) {
	t.Helper()
	dir := t.TempDir()
	configFile = filepath.Join(dir, "config")
	credentialsFile = filepath.Join(dir, "credentials")
	t.Setenv("AWS_CONFIG_FILE", configFile)
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", credentialsFile)
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	for _, name := range []string{
		"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_SESSION_TOKEN",
		"AWS_PROFILE", "AWS_DEFAULT_PROFILE", "AWS_REGION", "AWS_DEFAULT_REGION",
		"AWS_WEB_IDENTITY_TOKEN_FILE", "AWS_ROLE_ARN",
		"AWS_CONTAINER_CREDENTIALS_RELATIVE_URI", "AWS_CONTAINER_CREDENTIALS_FULL_URI",
	} {
		t.Setenv(name, "")
	}
	return configFile, credentialsFile
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func newClientConfig() *config.Config {
	cfg := config.New()
	cfg.Deploy.Region = ""
	cfg.Deploy.Endpoint = ""
	cfg.Deploy.PathStyle = false
	return cfg
}

func TestNewClient_NoCredentials(t *testing.T) {
	isolateAWS(t)

	_, err := NewClient(context.Background(), newClientConfig())
	if err == nil || !strings.Contains(err.Error(), "E152") {
		t.Fatalf("err = %v, want E152", err)
	}
}

func TestNewClient_Environment(t *testing.T) {
	isolateAWS(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "AKID")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")
	t.Setenv("AWS_SESSION_TOKEN", "TOKEN")
	t.Setenv("AWS_REGION", "eu-central-1")

	cfg := newClientConfig()
	cfg.Deploy.Endpoint = "http://localhost:9000"
	cfg.Deploy.PathStyle = true

	client, err := NewClient(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	opts := client.Options()
	if opts.Region != "eu-central-1" {
		t.Errorf("Region = %q", opts.Region)
	}
	if !opts.UsePathStyle {
		t.Error("UsePathStyle should be true")
	}
	if aws.ToString(opts.BaseEndpoint) != "http://localhost:9000" {
		t.Errorf("BaseEndpoint = %q", aws.ToString(opts.BaseEndpoint))
	}

	creds, err := opts.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessKeyID != "AKID" || creds.SessionToken != "TOKEN" {
		t.Errorf("creds = %+v", creds)
	}
}

func TestNewClient_SharedProfile(t *testing.T) {
	configFile, credentialsFile := isolateAWS(t)
	writeFile(t, configFile, "[default]\nregion = eu-west-3\n\n[profile staging]\nregion = ca-central-1\n")
	writeFile(t, credentialsFile, "[default]\naws_access_key_id = DEFAULTKEY\naws_secret_access_key = DEFAULTSECRET\n\n[staging]\naws_access_key_id = STAGINGKEY\naws_secret_access_key = STAGINGSECRET\n")

	tests := []struct {
		name    string
		profile string
		region  string
		wantKey string
		wantReg string
	}{
		{"default profile", "", "", "DEFAULTKEY", "eu-west-3"},
		{"named profile", "staging", "", "STAGINGKEY", "ca-central-1"},
		{"region override", "staging", "ap-south-1", "STAGINGKEY", "ap-south-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AWS_PROFILE", tt.profile)
			cfg := newClientConfig()
			cfg.Deploy.Region = tt.region

			client, err := NewClient(context.Background(), cfg)
			if err != nil {
				t.Fatal(err)
			}
			opts := client.Options()
			if opts.Region != tt.wantReg {
				t.Errorf("Region = %q, want %q", opts.Region, tt.wantReg)
			}
			creds, err := opts.Credentials.Retrieve(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if creds.AccessKeyID != tt.wantKey {
				t.Errorf("AccessKeyID = %q, want %q", creds.AccessKeyID, tt.wantKey)
			}
		})
	}
}

func TestNewClient_DefaultRegion(t *testing.T) {
	isolateAWS(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "AKID")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")

	client, err := NewClient(context.Background(), newClientConfig())
	if err != nil {
		t.Fatal(err)
	}
	if got := client.Options().Region; got != DefaultRegion {
		t.Errorf("Region = %q, want %q", got, DefaultRegion)
	}
}
