package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"github.com/skillbox-dev/skillbox/pkg/agents"
	"github.com/skillbox-dev/skillbox/pkg/installer"
	"github.com/skillbox-dev/skillbox/pkg/lockfile"
	"github.com/skillbox-dev/skillbox/pkg/paths"
)

// parseSourceRef splits "source[@ref]". The @ in ssh-style git URLs
// (git@github.com:...) is not a ref separator; a ref never contains a
// slash.
func parseSourceRef(arg string) (source, ref string) {
	idx := strings.LastIndex(arg, "@")
	if idx <= 0 {
		return arg, ""
	}
	if strings.Contains(arg[idx+1:], "/") {
		return arg, ""
	}
	return arg[:idx], arg[idx+1:]
}

func parseScope(value string) (paths.Scope, error) {
	switch value {
	case "shared", "":
		return paths.ScopeShared, nil
	case "local":
		return paths.ScopeLocal, nil
	default:
		return "", errors.Errorf("invalid scope %q: expected 'shared' or 'local'", value)
	}
}

func parseMode(value string) (installer.Mode, error) {
	switch value {
	case "link", "":
		return installer.ModeLink, nil
	case "copy":
		return installer.ModeCopy, nil
	default:
		return "", errors.Errorf("invalid mode %q: expected 'link' or 'copy'", value)
	}
}

// selectAgents resolves which agent targets an operation applies to.
// Explicit --agent flags win; otherwise the detected agents are offered in
// an interactive picker (prefilled with the previous selection), or used
// wholesale when no terminal is attached or --yes was passed.
func selectAgents(ctx context.Context, registry *agents.Registry, store *lockfile.Store, ids []string, assumeYes bool) ([]*agents.Agent, error) {
	if len(ids) > 0 {
		selected := make([]*agents.Agent, 0, len(ids))
		for _, id := range ids {
			agent, err := registry.Get(id)
			if err != nil {
				return nil, err
			}
			selected = append(selected, agent)
		}
		return selected, nil
	}

	detected := registry.DetectPresent(ctx)
	if len(detected) == 0 {
		return nil, errors.New("no supported agents detected on this machine (use --agent to pick one explicitly)")
	}

	if assumeYes || !isatty.IsTerminal(os.Stdin.Fd()) {
		return detected, nil
	}

	previous := make(map[string]bool)
	for _, id := range store.LastSelectedAgents() {
		previous[id] = true
	}

	var options []huh.Option[string]
	for _, agent := range detected {
		selected := len(previous) == 0 || previous[agent.ID()]
		options = append(options, huh.NewOption(agent.DisplayName(), agent.ID()).Selected(selected))
	}

	var chosen []string
	err := huh.NewMultiSelect[string]().
		Title("Install to which agents?").
		Options(options...).
		Value(&chosen).
		Run()
	if err != nil {
		return nil, errors.Wrap(err, "agent selection aborted")
	}
	if len(chosen) == 0 {
		return nil, errors.New("no agents selected")
	}

	selected := make([]*agents.Agent, 0, len(chosen))
	for _, id := range chosen {
		agent, err := registry.Get(id)
		if err != nil {
			return nil, err
		}
		selected = append(selected, agent)
	}
	return selected, nil
}
