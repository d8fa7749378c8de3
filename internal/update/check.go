// Package update checks GitHub for a newer installer release. The check is
// best-effort: callers treat any error as "no answer" and never block the
// install on it.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultOwner and DefaultRepo locate the installer's own release feed.
const (
	DefaultOwner = "analytics-hq"
	DefaultRepo  = "installer"
)

// Info describes the highest stable release found for a repository.
type Info struct {
	Repo      string    `json:"repo"`
	Version   string    `json:"version"`
	Tag       string    `json:"tag"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetched_at"`
	Source    string    `json:"source"`
}

type Options struct {
	MaxPages          int
	CacheTTL          time.Duration
	IncludePrerelease bool
}

// LatestRelease returns the highest stable release of owner/repo, consulting a
// small on-disk cache first. The bool reports whether the answer came from the
// cache.
func LatestRelease(ctx context.Context, owner string, repo string, opts Options) (Info, bool, error) {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 3
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}

	fullRepo := owner + "/" + repo

	if cached, ok := readCache(fullRepo, opts.CacheTTL); ok {
		cached.Source = "cache"
		return cached, true, nil
	}

	var all []Release
	for page := 1; page <= opts.MaxPages; page++ {
		items, err := fetchReleasesPage(ctx, owner, repo, page)
		if err != nil {
			return Info{}, false, err
		}
		if len(items) == 0 {
			break
		}
		all = append(all, items...)
	}
	if len(all) == 0 {
		return Info{}, false, errors.New("no releases returned")
	}

	info, err := selectHighest(fullRepo, all, opts.IncludePrerelease)
	if err != nil {
		return Info{}, false, err
	}
	info.FetchedAt = time.Now()
	info.Source = "github_api"

	_ = writeCache(info)
	return info, false, nil
}

// NewerThan reports whether the release is a strictly higher semver than the
// given version string. Unparseable versions compare as "not newer".
func (i Info) NewerThan(current string) bool {
	latest, ok := parseSemver(i.Version)
	if !ok {
		return false
	}
	cur, ok := parseSemver(current)
	if !ok {
		return false
	}
	return compareSemver(latest, cur) > 0
}

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

type semver struct {
	major int
	minor int
	patch int
}

func parseSemver(s string) (semver, bool) {
	m := versionRe.FindStringSubmatch(s)
	if len(m) != 4 {
		return semver{}, false
	}
	maj, err1 := strconv.Atoi(m[1])
	min, err2 := strconv.Atoi(m[2])
	pat, err3 := strconv.Atoi(m[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return semver{}, false
	}
	return semver{major: maj, minor: min, patch: pat}, true
}

func compareSemver(a semver, b semver) int {
	if a.major != b.major {
		if a.major < b.major {
			return -1
		}
		return 1
	}
	if a.minor != b.minor {
		if a.minor < b.minor {
			return -1
		}
		return 1
	}
	if a.patch != b.patch {
		if a.patch < b.patch {
			return -1
		}
		return 1
	}
	return 0
}

func selectHighest(repo string, releases []Release, includePrerelease bool) (Info, error) {
	var (
		bestV   semver
		bestRaw string
		best    Release
		found   bool
	)

	for _, r := range releases {
		if r.Draft || (!includePrerelease && r.Prerelease) {
			continue
		}

		tag := strings.TrimSpace(r.TagName)
		name := strings.TrimSpace(r.Name)

		v, ok := parseSemver(tag)
		raw := tag
		if !ok {
			v, ok = parseSemver(name)
			raw = name
		}
		if !ok {
			continue
		}

		if !found || compareSemver(v, bestV) > 0 {
			found = true
			bestV = v
			bestRaw = raw
			best = r
		}
	}

	if !found {
		return Info{}, errors.New("no stable releases with semver tags found")
	}

	parsed, _ := parseSemver(bestRaw)
	version := strconv.Itoa(parsed.major) + "." + strconv.Itoa(parsed.minor) + "." + strconv.Itoa(parsed.patch)

	return Info{
		Repo:    repo,
		Version: version,
		Tag:     best.TagName,
		Name:    best.Name,
		URL:     best.HTMLURL,
	}, nil
}

type cacheFile struct {
	Release Info `json:"release"`
}

func cachePath(repo string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", herr
		}
		dir = filepath.Join(home, ".cache")
	}
	repo = strings.TrimSpace(repo)
	if repo == "" {
		repo = "unknown"
	}
	safe := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_").Replace(repo)
	safe = strings.Trim(safe, "_")
	if safe == "" {
		safe = "unknown"
	}
	return filepath.Join(dir, "analytics-installer", "release-"+safe+".json"), nil
}

func readCache(repo string, ttl time.Duration) (Info, bool) {
	path, err := cachePath(repo)
	if err != nil {
		return Info{}, false
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Info{}, false
	}

	var f cacheFile
	if err := json.Unmarshal(b, &f); err != nil {
		return Info{}, false
	}
	if f.Release.Repo != repo {
		return Info{}, false
	}
	if f.Release.FetchedAt.IsZero() {
		return Info{}, false
	}
	if time.Since(f.Release.FetchedAt) > ttl {
		return Info{}, false
	}
	return f.Release, true
}

func writeCache(info Info) error {
	path, err := cachePath(info.Repo)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f := cacheFile{Release: info}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
