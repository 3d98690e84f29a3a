package dev

import (
	"path/filepath"

	"github.com/vango-dev/inactive/internal/config"
)

// CollectWatchPaths returns a normalized list of watch paths for the project:
// dev.watch entries, the static directory, and the config file.
func CollectWatchPaths(cfg *config.Config) []string {
	projectDir := cfg.Dir()
	paths := []string{cfg.StaticPath(), cfg.Path()}
	for _, p := range cfg.Dev.Watch {
		paths = append(paths, resolvePath(projectDir, p))
	}
	return uniqueClean(paths)
}

// CollectIgnore returns DefaultIgnore plus dev.ignore and the build output
// directory, so that builds never trigger themselves.
func CollectIgnore(cfg *config.Config) []string {
	ignore := append([]string(nil), DefaultIgnore...)
	ignore = append(ignore, cfg.Dev.Ignore...)
	return append(ignore, cfg.OutputPath())
}

func uniqueClean(paths []string) []string {
	unique := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		clean := filepath.Clean(p)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		unique = append(unique, clean)
	}
	return unique
}

func resolvePath(projectDir, p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(projectDir, p)
}
