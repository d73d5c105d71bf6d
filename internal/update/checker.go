// Package update checks a release feed for a newer version of the app.
// It only reports; downloading and installing are left to the user.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/matt0x6f/rocketchat-desktop/internal/build"
	"github.com/matt0x6f/rocketchat-desktop/internal/logger"
)

// ErrNoRelease is returned when the feed has no usable release
var ErrNoRelease = errors.New("no release available")

// Release is the subset of a GitHub release the check uses
type Release struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	HTMLURL    string `json:"html_url"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// Version returns the tag without a leading "v"
func (r Release) Version() string {
	return strings.TrimPrefix(r.TagName, "v")
}

// Checker queries a release feed
type Checker struct {
	feedURL string
	current string
	client  *http.Client
}

// NewChecker creates a checker comparing feedURL's latest release with current
func NewChecker(feedURL, current string, client *http.Client) *Checker {
	if client == nil {
		client = http.DefaultClient
	}
	return &Checker{
		feedURL: feedURL,
		current: current,
		client:  client,
	}
}

// Check fetches the latest release and reports whether it is newer than the running version
func (c *Checker) Check(ctx context.Context) (*Release, bool, error) {
	release, err := c.latest(ctx)
	if err != nil {
		return nil, false, err
	}

	newer := IsNewer(release.Version(), c.current)
	logger.Log.Debug().
		Str("current", c.current).
		Str("latest", release.Version()).
		Bool("newer", newer).
		Msg("Update check finished")
	return release, newer, nil
}

func (c *Checker) latest(ctx context.Context) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", build.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoRelease
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release feed returned %s", resp.Status)
	}

	var release Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release feed: %w", err)
	}
	if release.TagName == "" || release.Draft || release.Prerelease {
		return nil, ErrNoRelease
	}
	return &release, nil
}

// IsNewer reports whether candidate is a higher semantic version than current.
// A leading "v" is optional and pre-releases order below their release;
// invalid versions are never newer.
func IsNewer(candidate, current string) bool {
	a, b := canonical(candidate), canonical(current)
	if !semver.IsValid(a) || !semver.IsValid(b) {
		return false
	}
	return semver.Compare(a, b) > 0
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
