// Package update checks GitHub releases for a newer taskpad build.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const defaultAPIBaseURL = "https://api.github.com"

// Release describes a GitHub release with the download URL for the current platform.
type Release struct {
	Version string `json:"version"`
	URL     string `json:"url"`
}

// githubRelease is the subset of the GitHub releases API response we use.
type githubRelease struct {
	TagName string        `json:"tag_name"`
	Assets  []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Checker looks up the latest published release.
type Checker struct {
	CurrentVersion string
	RepoOwner      string
	RepoName       string
	BaseURL        string
	HTTPClient     *http.Client
}

// New returns a Checker for the GoCodeAlone/taskpad repository.
func New(currentVersion string) *Checker {
	return &Checker{
		CurrentVersion: currentVersion,
		RepoOwner:      "GoCodeAlone",
		RepoName:       "taskpad",
		BaseURL:        defaultAPIBaseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Latest queries the releases API. It returns nil, nil when the running build
// is a dev build or is not older than the latest release.
func (c *Checker) Latest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest",
		strings.TrimRight(c.BaseURL, "/"), c.RepoOwner, c.RepoName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", fmt.Sprintf("taskpad/%s", c.CurrentVersion))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github API returned %d", resp.StatusCode)
	}

	var rel githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}

	if c.CurrentVersion == "dev" {
		return nil, nil
	}
	latest, current := canonical(rel.TagName), canonical(c.CurrentVersion)
	if !semver.IsValid(latest) {
		return nil, fmt.Errorf("release tag %q is not a semantic version", rel.TagName)
	}
	if !semver.IsValid(current) {
		return nil, fmt.Errorf("current version %q is not a semantic version", c.CurrentVersion)
	}
	if semver.Compare(latest, current) <= 0 {
		return nil, nil
	}

	return &Release{
		Version: rel.TagName,
		URL:     platformAssetURL(rel.Assets, runtime.GOOS, runtime.GOARCH),
	}, nil
}

// platformAssetURL finds the download URL matching goos and goarch, or "".
func platformAssetURL(assets []githubAsset, goos, goarch string) string {
	// Release archives use x86_64 for amd64.
	if goarch == "amd64" {
		goarch = "x86_64"
	}
	for _, a := range assets {
		name := strings.ToLower(a.Name)
		if strings.Contains(name, goos) && strings.Contains(name, goarch) {
			return a.BrowserDownloadURL
		}
	}
	return ""
}

// canonical adds the "v" prefix semver expects.
func canonical(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
