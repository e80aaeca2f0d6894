// Package source downloads raw markdown resource lists from GitHub
// repositories. Two domain.Fetcher implementations live in subpackages: raw
// reads raw.githubusercontent.com, github goes through the REST contents API.
package source

import (
	"fmt"
	"strings"

	"learnrag/internal/domain"
)

// DefaultBranches are tried in order when no branches are configured.
var DefaultBranches = []string{"main", "master"}

// SplitRepo splits "owner/name" into its parts.
func SplitRepo(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(strings.Trim(repo, "/"), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repository %q is not owner/name: %w", repo, domain.ErrInvalidInput)
	}
	return owner, name, nil
}

// Branches returns configured, or DefaultBranches when none are set.
func Branches(configured []string) []string {
	if len(configured) == 0 {
		return DefaultBranches
	}
	return configured
}
