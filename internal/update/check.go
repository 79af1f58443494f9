package update

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/blang/semver/v4"
)

// Result holds the outcome of a version check.
type Result struct {
	Latest    string // e.g. "v0.3.1"
	Current   string
	UpdateURL string
}

// NeedsUpdate reports whether Latest is a newer release than Current.
// Dev builds never prompt for updates.
func (r *Result) NeedsUpdate() bool {
	if r.Current == "dev" {
		return false
	}
	latest, err := semver.ParseTolerant(r.Latest)
	if err != nil {
		return false
	}
	current, err := semver.ParseTolerant(r.Current)
	if err != nil {
		return false
	}
	return latest.GT(current)
}

// githubRelease is the minimal JSON shape we need from the GitHub API.
type githubRelease struct {
	TagName string `json:"tag_name"`
}

// defaultBaseURL is the GitHub API base URL, overridable for testing.
var defaultBaseURL = "https://api.github.com"

// CheckLatest queries the GitHub Releases API for the latest release of
// repo (e.g. "sigscan/sigscan"). Returns nil on timeout, network failure,
// or non-release versions. Never returns an error to the caller.
func CheckLatest(currentVersion, repo string) *Result {
	if currentVersion == "dev" {
		return nil
	}
	return checkLatestWithBase(defaultBaseURL, currentVersion, repo)
}

func checkLatestWithBase(baseURL, currentVersion, repo string) *Result {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", baseURL, repo)

	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil
	}

	if release.TagName == "" {
		return nil
	}

	bin := repo[strings.LastIndex(repo, "/")+1:]
	return &Result{
		Latest:    release.TagName,
		Current:   currentVersion,
		UpdateURL: fmt.Sprintf("go install github.com/%s/cmd/%s@latest", repo, bin),
	}
}
