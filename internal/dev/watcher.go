package dev

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	// ChangeSource is a Go source or module file. It needs a rebuild.
	ChangeSource ChangeType = iota

	// ChangeStatic is a file under the static directory.
	ChangeStatic

	// ChangeConfig is the project configuration file.
	ChangeConfig
)

func (t ChangeType) String() string {
	switch t {
	case ChangeSource:
		return "source"
	case ChangeStatic:
		return "static"
	case ChangeConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Change represents a detected file change.
type Change struct {
	Path    string
	Type    ChangeType
	Removed bool
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Paths are the files and directories to watch.
	Paths []string

	// StaticDir classifies changes below it as ChangeStatic.
	StaticDir string

	// Ignore patterns to skip (names, path segments, or globs).
	Ignore []string

	// Interval is the polling interval.
	Interval time.Duration
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	"*_test.go",
	".git",
	"node_modules",
	"tmp",
	"*.tmp",
	"*.swp",
	"*~",
}

// Watcher polls the file system for changes.
type Watcher struct {
	config      WatcherConfig
	onChange    func([]Change)
	mu          sync.Mutex
	running     bool
	initialized bool
	stopCh      chan struct{}
	timestamps  map[string]time.Time
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Interval == 0 {
		config.Interval = 100 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}

	return &Watcher{
		config:     config,
		timestamps: make(map[string]time.Time),
	}
}

// OnChange sets the callback for a batch of changes found in one poll.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start polls until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	w.scanInitial()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			w.Poll()
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// scanInitial records the current modification times without reporting.
func (w *Watcher) scanInitial() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.walk(func(p string, info os.FileInfo) {
		w.timestamps[p] = info.ModTime()
	})
	w.initialized = true
}

// Poll scans once and reports what changed since the previous scan. The
// first call on a watcher that was never started only records state.
func (w *Watcher) Poll() []Change {
	w.mu.Lock()
	if !w.initialized {
		w.mu.Unlock()
		w.scanInitial()
		return nil
	}

	var changes []Change
	seen := make(map[string]bool, len(w.timestamps))
	w.walk(func(p string, info os.FileInfo) {
		seen[p] = true
		lastMod, exists := w.timestamps[p]
		if !exists || info.ModTime().After(lastMod) {
			w.timestamps[p] = info.ModTime()
			changes = append(changes, Change{Path: p, Type: w.classify(p)})
		}
	})
	for p := range w.timestamps {
		if !seen[p] {
			delete(w.timestamps, p)
			changes = append(changes, Change{Path: p, Type: w.classify(p), Removed: true})
		}
	}
	callback := w.onChange
	w.mu.Unlock()

	if len(changes) > 0 && callback != nil {
		callback(changes)
	}
	return changes
}

func (w *Watcher) walk(fn func(string, os.FileInfo)) {
	for _, root := range w.config.Paths {
		filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				rel = p
			}
			if info.IsDir() {
				if p != root && w.shouldIgnore(p, rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if !w.shouldIgnore(p, rel) {
				fn(p, info)
			}
			return nil
		})
	}
}

// classify determines the type of change from the path.
func (w *Watcher) classify(p string) ChangeType {
	switch filepath.Base(p) {
	case "inactive.json", "inactive.yaml":
		return ChangeConfig
	}
	if w.config.StaticDir != "" && isWithinDir(p, w.config.StaticDir) {
		return ChangeStatic
	}
	return ChangeSource
}

// shouldIgnore checks if a path should be ignored. Relative patterns match
// relPath, the path below the watch root; absolute ones match fullPath.
func (w *Watcher) shouldIgnore(fullPath, relPath string) bool {
	name := filepath.Base(fullPath)
	normalized := filepath.ToSlash(relPath)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		if name == pattern {
			return true
		}

		hasPathSep := strings.Contains(pattern, "/") || strings.Contains(pattern, "\\")
		hasGlob := strings.ContainsAny(pattern, "*?[")

		switch {
		case hasGlob && hasPathSep:
			if matched, _ := path.Match(filepath.ToSlash(pattern), normalized); matched {
				return true
			}
		case hasGlob:
			if matched, _ := filepath.Match(pattern, name); matched {
				return true
			}
		case hasPathSep:
			if filepath.IsAbs(pattern) {
				if isWithinDir(fullPath, pattern) {
					return true
				}
			} else if pathMatchesSegments(normalized, filepath.ToSlash(pattern)) {
				return true
			}
		default:
			if pathHasSegment(normalized, pattern) {
				return true
			}
		}
	}

	return false
}

func pathHasSegment(p, segment string) bool {
	for _, part := range splitPathSegments(p) {
		if part == segment {
			return true
		}
	}
	return false
}

func pathMatchesSegments(p, pattern string) bool {
	pathParts := splitPathSegments(p)
	patternParts := splitPathSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}

	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		match := true
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func splitPathSegments(p string) []string {
	if p == "" {
		return nil
	}
	parts := strings.Split(p, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}

func isWithinDir(p, dir string) bool {
	absPath, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
