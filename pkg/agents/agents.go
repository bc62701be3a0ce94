// Package agents holds the static registry of consumer programs ("agent
// targets") that skills can be installed into. Definitions are compiled in
// from targets.yaml and never change at runtime; the only dynamic question
// is whether a given agent is actually present on the machine.
package agents

import (
	"context"
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

//go:embed targets.yaml
var builtinDefinitions []byte

// Agent is one consumer program definition. Immutable after Load.
type Agent struct {
	id          string
	displayName string
	localDir    string
	sharedDir   string
	detectPaths []string
}

// ID returns the stable internal identifier (e.g. "claude-code").
func (a *Agent) ID() string { return a.id }

// DisplayName returns the human-readable name shown in listings.
func (a *Agent) DisplayName() string { return a.displayName }

// LocalSkillsDir returns the skills directory relative to a working
// directory.
func (a *Agent) LocalSkillsDir() string { return a.localDir }

// SharedSkillsDir returns the absolute shared-scope skills directory, or ""
// when the agent does not support shared scope.
func (a *Agent) SharedSkillsDir() string { return a.sharedDir }

// IsPresent reports whether the agent appears to be installed, by probing
// its conventional configuration directories.
func (a *Agent) IsPresent() bool {
	for _, p := range a.detectPaths {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// Registry is the fixed set of known agent targets, in definition order.
type Registry struct {
	agents []*Agent
	byID   map[string]*Agent
}

type agentDef struct {
	ID          string   `yaml:"id"`
	DisplayName string   `yaml:"displayName"`
	LocalDir    string   `yaml:"localDir"`
	SharedDir   string   `yaml:"sharedDir"`
	Detect      []string `yaml:"detect"`
}

type definitionsFile struct {
	Agents []agentDef `yaml:"agents"`
}

// Option configures Load.
type Option func(*loadConfig)

type loadConfig struct {
	homeDir     string
	definitions []byte
}

// WithHomeDir overrides the home directory used for ~ expansion.
func WithHomeDir(dir string) Option {
	return func(c *loadConfig) { c.homeDir = dir }
}

// WithDefinitions replaces the built-in target definitions.
func WithDefinitions(data []byte) Option {
	return func(c *loadConfig) { c.definitions = data }
}

// Load parses the agent target definitions and expands home-relative paths.
func Load(opts ...Option) (*Registry, error) {
	cfg := &loadConfig{definitions: builtinDefinitions}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.homeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get home directory")
		}
		cfg.homeDir = home
	}

	var file definitionsFile
	if err := yaml.Unmarshal(cfg.definitions, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse agent definitions")
	}
	if len(file.Agents) == 0 {
		return nil, errors.New("no agent definitions found")
	}

	r := &Registry{byID: make(map[string]*Agent, len(file.Agents))}
	for _, def := range file.Agents {
		if def.ID == "" || def.LocalDir == "" {
			return nil, errors.Errorf("invalid agent definition %q: id and localDir are required", def.ID)
		}
		a := &Agent{
			id:          def.ID,
			displayName: def.DisplayName,
			localDir:    filepath.FromSlash(def.LocalDir),
			sharedDir:   expandHome(def.SharedDir, cfg.homeDir),
		}
		for _, d := range def.Detect {
			a.detectPaths = append(a.detectPaths, expandHome(d, cfg.homeDir))
		}
		r.agents = append(r.agents, a)
		r.byID[a.id] = a
	}

	return r, nil
}

// All returns every known agent in definition order.
func (r *Registry) All() []*Agent {
	out := make([]*Agent, len(r.agents))
	copy(out, r.agents)
	return out
}

// Get returns an agent by ID.
func (r *Registry) Get(id string) (*Agent, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, errors.Errorf("unknown agent %q", id)
	}
	return a, nil
}

// IDs returns every known agent ID in definition order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.agents))
	for _, a := range r.agents {
		ids = append(ids, a.id)
	}
	return ids
}

// DetectPresent probes all agents in parallel and returns the ones present
// on this machine, preserving definition order.
func (r *Registry) DetectPresent(ctx context.Context) []*Agent {
	present := make([]bool, len(r.agents))

	g, _ := errgroup.WithContext(ctx)
	for i, a := range r.agents {
		i, a := i, a
		g.Go(func() error {
			present[i] = a.IsPresent()
			return nil
		})
	}
	_ = g.Wait() // probes never return errors

	var detected []*Agent
	for i, a := range r.agents {
		if present[i] {
			detected = append(detected, a)
		}
	}
	return detected
}

func expandHome(path, home string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, filepath.FromSlash(path[2:]))
	}
	return filepath.FromSlash(path)
}
