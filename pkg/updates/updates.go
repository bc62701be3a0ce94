// Package updates decides whether an installed skill is stale. There is no
// version numbering anywhere: staleness is a pure equality check between
// the content fingerprint of the local canonical descriptor and a freshly
// computed fingerprint of the remote source's descriptor.
package updates

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/skillbox-dev/skillbox/pkg/logger"
	"github.com/skillbox-dev/skillbox/pkg/paths"
	"github.com/skillbox-dev/skillbox/pkg/repo"
	"github.com/skillbox-dev/skillbox/pkg/skills"
)

// UpdateType describes what kind of change was detected.
type UpdateType string

// Update kinds
const (
	UpdateNone    UpdateType = "none"
	UpdateContent UpdateType = "content"
)

// CheckResult is the outcome of one staleness check. Hashes are empty when
// the corresponding side was absent.
type CheckResult struct {
	HasUpdate  bool
	UpdateType UpdateType
	LocalHash  string
	RemoteHash string
}

// Fingerprint computes the content hash of descriptor text.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Detector compares local and remote skill fingerprints.
type Detector struct {
	fetcher *repo.Fetcher
	baseDir string
}

// Option configures a Detector.
type Option func(*Detector)

// WithBaseDir sets the working directory used for local-scope resolution.
func WithBaseDir(dir string) Option {
	return func(d *Detector) { d.baseDir = dir }
}

// New creates a Detector using the given source fetcher.
func New(fetcher *repo.Fetcher, opts ...Option) *Detector {
	d := &Detector{fetcher: fetcher}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// LocalFingerprint hashes the canonical descriptor of an installed skill.
// A missing descriptor yields an empty hash, not an error.
func (d *Detector) LocalFingerprint(skillName string, scope paths.Scope) (string, error) {
	dir, err := paths.CanonicalSkillDir(scope, d.baseDir, skillName)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(filepath.Join(dir, skills.FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return Fingerprint(data), nil
}

// RemoteFingerprint materializes the source behind a locator, hashes the
// first discovered skill's descriptor, and cleans the staging directory up
// afterwards whatever happens. Fetch and discovery failures degrade to an
// absent fingerprint so that transient network or filesystem trouble never
// reads as "update available".
func (d *Detector) RemoteFingerprint(ctx context.Context, locator, subpath string) string {
	dir, err := d.fetcher.Fetch(ctx, locator, "")
	if err != nil {
		logger.G(ctx).WithField("source", locator).WithError(err).Debug("failed to fetch source for update check")
		return ""
	}
	defer func() {
		// Local-directory sources are outside the staging root and the
		// fetcher refuses to delete them, which is the point.
		if err := d.fetcher.Cleanup(dir); err != nil {
			logger.G(ctx).WithError(err).Debug("staging cleanup skipped")
		}
	}()

	found, err := skills.Discover(dir, skills.WithSubpath(subpath), skills.WithInternal(true))
	if err != nil {
		logger.G(ctx).WithField("source", locator).WithError(err).Debug("no skills discovered for update check")
		return ""
	}
	return Fingerprint([]byte(found[0].DescriptorRaw))
}

// CheckForUpdates compares the installed fingerprint of a skill against its
// source. When either side is absent the answer is "no update": a missing
// side is indistinguishable from degraded access and must not produce a
// false staleness signal.
func (d *Detector) CheckForUpdates(ctx context.Context, skillName, locator string, scope paths.Scope) (*CheckResult, error) {
	localHash, err := d.LocalFingerprint(skillName, scope)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{
		UpdateType: UpdateNone,
		LocalHash:  localHash,
	}
	if localHash == "" {
		return result, nil
	}

	result.RemoteHash = d.RemoteFingerprint(ctx, locator, "")
	if result.RemoteHash == "" {
		return result, nil
	}

	if result.LocalHash != result.RemoteHash {
		result.HasUpdate = true
		result.UpdateType = UpdateContent
	}
	return result, nil
}
