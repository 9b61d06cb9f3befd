package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
)

// releaseSlug is the GitHub repository hgchat releases are published to
const releaseSlug = "housegur/hgchat"

// errDevBuild is returned when the running binary carries no release version
var errDevBuild = errors.New("development build, updates are disabled")

// parseVersion parses a version string, handling "v" prefix
func parseVersion(v string) (semver.Version, error) {
	return semver.Parse(strings.TrimPrefix(strings.TrimSpace(v), "v"))
}

// releaseInfo is the outcome of an update check
type releaseInfo struct {
	Current   semver.Version
	Latest    semver.Version
	URL       string
	Available bool
}

// updater looks up and applies releases. The selfupdate calls are behind
// function fields so commands can be exercised offline.
type updater struct {
	slug         string
	detectLatest func(slug string) (*selfupdate.Release, bool, error)
	updateSelf   func(current semver.Version, slug string) (*selfupdate.Release, error)
}

func newUpdater() *updater {
	return &updater{
		slug:         releaseSlug,
		detectLatest: selfupdate.DetectLatest,
		updateSelf:   selfupdate.UpdateSelf,
	}
}

// Check compares currentVersion against the latest published release
func (u *updater) Check(currentVersion string) (*releaseInfo, error) {
	current, err := parseVersion(currentVersion)
	if err != nil {
		return nil, errDevBuild
	}

	latest, found, err := u.detectLatest(u.slug)
	if err != nil {
		return nil, fmt.Errorf("failed to detect latest version: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("no release found for %s", u.slug)
	}

	info := &releaseInfo{
		Current:   current,
		Latest:    latest.Version,
		URL:       latest.URL,
		Available: latest.Version.GT(current),
	}
	slog.Debug("update check", "current", current, "latest", latest.Version, "available", info.Available)
	return info, nil
}

// Apply replaces the running binary with the latest release. It returns the
// version now installed.
func (u *updater) Apply(currentVersion string) (semver.Version, error) {
	current, err := parseVersion(currentVersion)
	if err != nil {
		return semver.Version{}, errDevBuild
	}

	latest, err := u.updateSelf(current, u.slug)
	if err != nil {
		return semver.Version{}, fmt.Errorf("failed to update: %w", err)
	}
	if latest.Version.Equals(current) {
		slog.Info("already up to date", "version", current)
	} else {
		slog.Info("successfully updated", "from", current, "to", latest.Version)
	}
	return latest.Version, nil
}

type updateCmd struct {
	Check bool `help:"Only report whether a newer release exists"`
}

func (c *updateCmd) Run() error {
	u := newUpdater()

	info, err := u.Check(version)
	if err != nil {
		return err
	}
	if !info.Available {
		fmt.Printf("hgchat v%s está actualizado.\n", info.Current)
		return nil
	}
	if c.Check {
		fmt.Printf("Nueva versión disponible: v%s (tienes v%s)\n%s\n", info.Latest, info.Current, info.URL)
		return nil
	}

	installed, err := u.Apply(version)
	if err != nil {
		return err
	}
	fmt.Printf("hgchat actualizado a v%s\n", installed)
	return nil
}
