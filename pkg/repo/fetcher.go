// Package repo materializes remote skill sources into local staging
// directories. Sources are GitHub "owner/repo" shorthands, full git URLs,
// or existing local directories. Every fetched source lands in a
// uniquely-named directory under a fixed staging root so that cleanup can
// refuse to touch anything else.
package repo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/skillbox-dev/skillbox/pkg/logger"
	"github.com/skillbox-dev/skillbox/pkg/paths"
)

// SourceType classifies a source locator.
type SourceType string

// Recognized source locator kinds
const (
	SourceGitHub SourceType = "github"
	SourceGit    SourceType = "git"
	SourceLocal  SourceType = "local"
)

// Fetcher clones skill sources into a staging area.
type Fetcher struct {
	stagingRoot string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithStagingRoot overrides the staging directory, for tests.
func WithStagingRoot(dir string) Option {
	return func(f *Fetcher) { f.stagingRoot = dir }
}

// NewFetcher creates a Fetcher staging under the OS temp directory.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		stagingRoot: filepath.Join(os.TempDir(), "skillbox-staging"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Classify determines the kind of a source locator and, for remote kinds,
// the URL to clone.
func Classify(locator string) (SourceType, string, error) {
	if locator == "" {
		return "", "", errors.New("source locator cannot be empty")
	}

	if info, err := os.Stat(locator); err == nil && info.IsDir() {
		abs, err := filepath.Abs(locator)
		if err != nil {
			return "", "", errors.Wrap(err, "failed to resolve local source path")
		}
		return SourceLocal, abs, nil
	}

	if strings.Contains(locator, "://") || strings.HasPrefix(locator, "git@") {
		return SourceGit, locator, nil
	}

	if err := validateRepoName(locator); err != nil {
		return "", "", err
	}
	return SourceGitHub, "https://github.com/" + locator, nil
}

// validateRepoName checks the "owner/repo" GitHub shorthand format.
func validateRepoName(repo string) error {
	if !strings.Contains(repo, "/") {
		return errors.Errorf("invalid source %q: expected 'owner/repo', a git URL, or a local directory", repo)
	}
	parts := strings.SplitN(repo, "/", 2)
	if parts[0] == "" || parts[1] == "" {
		return errors.Errorf("invalid repository format %q: owner and repo cannot be empty", repo)
	}
	return nil
}

// Fetch materializes the source behind a locator and returns the local
// directory. Remote sources are shallow-cloned into the staging root; local
// directories are returned as-is (Cleanup will refuse to delete them).
func (f *Fetcher) Fetch(ctx context.Context, locator, ref string) (string, error) {
	kind, target, err := Classify(locator)
	if err != nil {
		return "", err
	}

	if kind == SourceLocal {
		if ref != "" {
			return "", errors.New("a ref cannot be used with a local directory source")
		}
		return target, nil
	}

	if err := os.MkdirAll(f.stagingRoot, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create staging directory")
	}
	dest := filepath.Join(f.stagingRoot, uuid.NewString())

	args := []string{"clone", "--depth", "1"}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	args = append(args, target, dest)

	logger.G(ctx).WithField("source", locator).Debug("cloning skill source")

	cmd := exec.CommandContext(ctx, "git", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		os.RemoveAll(dest)
		return "", errors.Wrapf(err, "failed to clone %s: %s", locator, strings.TrimSpace(string(output)))
	}

	return dest, nil
}

// Cleanup removes a fetched directory. It refuses to operate on anything
// outside the staging root, so local directory sources and arbitrary paths
// are never deleted. Calling it twice, or on an already-missing directory,
// is fine.
func (f *Fetcher) Cleanup(dir string) error {
	if dir == "" {
		return nil
	}
	if !paths.IsPathSafe(f.stagingRoot, dir) || dir == f.stagingRoot {
		return errors.Errorf("refusing to clean up %s: outside the staging root", dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrap(err, "failed to remove staging directory")
	}
	return nil
}
