package updater

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	cacheFileName = "version-check.json"
	// DefaultCacheMaxAge is how long a recorded check counts as recent.
	DefaultCacheMaxAge = 24 * time.Hour
)

// VersionCache records the last update check.
type VersionCache struct {
	LatestVersion   string    `json:"latest_version"`
	CurrentVersion  string    `json:"current_version"`
	CheckedAt       time.Time `json:"checked_at"`
	UpdateAvailable bool      `json:"update_available"`
	Action          string    `json:"action"`
}

// CachePath returns the cache file location inside stateDir.
func CachePath(stateDir string) string {
	return filepath.Join(stateDir, cacheFileName)
}

// LoadCache reads the version cache from the state directory.
// Returns nil, nil if no check has been recorded yet.
func LoadCache(stateDir string) (*VersionCache, error) {
	data, err := os.ReadFile(CachePath(stateDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading version cache: %w", err)
	}

	var cache VersionCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("parsing version cache: %w", err)
	}
	return &cache, nil
}

// SaveCache writes the version cache to the state directory.
func SaveCache(stateDir string, cache *VersionCache) error {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling version cache: %w", err)
	}

	if err := os.WriteFile(CachePath(stateDir), data, 0644); err != nil {
		return fmt.Errorf("writing version cache: %w", err)
	}
	return nil
}

// IsCacheStale returns true if the cache is older than maxAge or nil.
func IsCacheStale(cache *VersionCache, maxAge time.Duration, now time.Time) bool {
	if cache == nil {
		return true
	}
	return now.Sub(cache.CheckedAt) > maxAge
}
