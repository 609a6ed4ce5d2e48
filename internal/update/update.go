// Package update provides version checking and self-update for the todoit
// binary.
package update

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/delesslingw/TODOIT/internal/config"
)

const (
	// GitHubRepo is the repository checked for releases.
	GitHubRepo = "delesslingw/TODOIT"
	// CheckInterval is the minimum time between update checks.
	CheckInterval = 24 * time.Hour
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Release is the slice of the GitHub release response we care about.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is a downloadable release artifact.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// checkCache remembers the last check so startup stays fast.
type checkCache struct {
	LastCheck     int64  `json:"last_check"`
	LatestVersion string `json:"latest_version"`
	DownloadURL   string `json:"download_url"`
}

// Checker looks up the latest release and can replace the running binary.
type Checker struct {
	configDir string
	cache     *checkCache
}

// NewChecker creates a Checker caching its state in the config directory.
func NewChecker() (*Checker, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	c := &Checker{configDir: dir}
	_ = c.loadCache()
	return c, nil
}

// ShouldCheck reports whether enough time passed since the last check.
func (c *Checker) ShouldCheck() bool {
	if c.cache == nil {
		return true
	}
	return time.Since(time.Unix(c.cache.LastCheck, 0)) > CheckInterval
}

// CheckForUpdate asks GitHub for the latest release.
// Returns (hasUpdate, latestVersion, error).
func (c *Checker) CheckForUpdate() (bool, string, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/releases/latest", GitHubRepo)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return false, "", fmt.Errorf("check for updates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return false, "", fmt.Errorf("parse release info: %w", err)
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	current := strings.TrimPrefix(Version, "v")

	c.cache = &checkCache{
		LastCheck:     time.Now().Unix(),
		LatestVersion: latest,
		DownloadURL:   findAssetURL(release.Assets),
	}
	_ = c.saveCache()

	hasUpdate := latest != "" && latest != current && current != "dev"
	return hasUpdate, latest, nil
}

// DownloadAndInstall replaces the running binary with the latest release.
func (c *Checker) DownloadAndInstall() error {
	if c.cache == nil || c.cache.DownloadURL == "" {
		if _, _, err := c.CheckForUpdate(); err != nil {
			return err
		}
	}
	url := c.cache.DownloadURL
	if url == "" {
		return fmt.Errorf("no release asset for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp("", "todoit-update-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write download: %w", err)
	}
	tmpFile.Close()

	if err := os.Chmod(tmpPath, 0755); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}

	currentBin, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate current executable: %w", err)
	}
	currentBin, _ = filepath.EvalSymlinks(currentBin)

	// A running binary cannot be overwritten in place everywhere, so move it
	// aside first and restore it when the install fails.
	backupPath := currentBin + ".old"
	os.Remove(backupPath)
	if err := os.Rename(currentBin, backupPath); err != nil {
		return fmt.Errorf("backup current binary: %w", err)
	}
	if err := copyFile(tmpPath, currentBin); err != nil {
		os.Rename(backupPath, currentBin)
		return fmt.Errorf("install new binary: %w", err)
	}
	os.Remove(backupPath)
	return nil
}

func (c *Checker) cachePath() string {
	return filepath.Join(c.configDir, "update_cache.json")
}

func (c *Checker) loadCache() error {
	data, err := os.ReadFile(c.cachePath())
	if err != nil {
		return err
	}
	var cache checkCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return err
	}
	c.cache = &cache
	return nil
}

func (c *Checker) saveCache() error {
	if c.cache == nil {
		return nil
	}
	data, err := json.MarshalIndent(c.cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.cachePath(), data, 0600)
}

// findAssetURL picks the release asset matching the current OS/arch.
func findAssetURL(assets []Asset) string {
	goos := runtime.GOOS
	arch := runtime.GOARCH

	archAliases := map[string][]string{
		"amd64": {"amd64", "x86_64", "x64"},
		"arm64": {"arm64", "aarch64"},
		"386":   {"386", "i386", "x86"},
	}
	aliases, ok := archAliases[arch]
	if !ok {
		aliases = []string{arch}
	}

	for _, asset := range assets {
		name := strings.ToLower(asset.Name)
		if !strings.Contains(name, goos) {
			continue
		}
		for _, alias := range aliases {
			if strings.Contains(name, alias) {
				return asset.BrowserDownloadURL
			}
		}
	}
	return ""
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, info.Mode())
}
