package plugin

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// PathEnv is the environment variable listing plugin directories.
const PathEnv = "DSSI_PATH"

// ParseLocator splits "path[:label]" at the first colon.
func ParseLocator(s string) (path, label string) {
	path, label, _ = strings.Cut(s, ":")
	return path, label
}

// DefaultSearchPath returns the built-in directory list. home may be empty.
func DefaultSearchPath(home string) []string {
	dirs := []string{"/usr/local/lib/dssi", "/usr/lib/dssi"}
	if home != "" {
		dirs = append(dirs, home+"/.dssi")
	}
	return dirs
}

// SearchPath reads PathEnv through getenv, falling back to
// DefaultSearchPath. fromEnv is false when the fallback was used.
func SearchPath(getenv func(string) string) (dirs []string, fromEnv bool) {
	v := getenv(PathEnv)
	if v == "" {
		return DefaultSearchPath(getenv("HOME")), false
	}
	for _, d := range strings.Split(v, ":") {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs, true
}

// Resolve opens locator with open. An absolute locator is opened as is;
// otherwise each absolute directory in dirs is tried in order and the first
// successful open wins. Relative directories are skipped with a warning.
func Resolve[T any](locator string, dirs []string, open func(path string) (T, error), logger *slog.Logger) (T, string, error) {
	var zero T
	if logger == nil {
		logger = slog.Default()
	}

	if filepath.IsAbs(locator) {
		h, err := open(locator)
		if err != nil {
			return zero, "", fmt.Errorf("%w: %s: %w", ErrLibraryNotFound, locator, err)
		}
		return h, locator, nil
	}

	var lastErr error
	for _, dir := range dirs {
		if !filepath.IsAbs(dir) {
			logger.Warn("ignoring relative element in plugin path", "element", dir)
			continue
		}
		candidate := dir + "/" + locator
		logger.Debug("looking for plugin library", "library", locator, "dir", dir)
		h, err := open(candidate)
		if err == nil {
			logger.Debug("found plugin library", "path", candidate)
			return h, candidate, nil
		}
		logger.Debug("plugin library not found", "path", candidate, "err", err)
		lastErr = err
	}

	if lastErr != nil {
		return zero, "", fmt.Errorf("%w: %s: %w", ErrLibraryNotFound, locator, lastErr)
	}
	return zero, "", fmt.Errorf("%w: %s", ErrLibraryNotFound, locator)
}
