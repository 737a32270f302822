// Package gitops versions an offline data directory with the git binary.
package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Author identifies who a snapshot commit is attributed to.
type Author struct {
	Name  string
	Email string
}

// DefaultAuthor is used for snapshots written by the CLI.
var DefaultAuthor = Author{Name: "ledgerview", Email: "ledgerview@localhost"}

// Init initializes a new git repository at dir.
func Init(dir string) error {
	if out, err := git(dir, "init", "--quiet"); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Snapshot stages everything in dir and commits it as author. It returns
// the short commit hash, or "" when there was nothing to commit.
func Snapshot(dir, message string, author Author) (string, error) {
	if out, err := git(dir, "add", "-A"); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	status, err := git(dir, "status", "--porcelain")
	if err != nil {
		return "", fmt.Errorf("git status: %s: %w", status, err)
	}
	if strings.TrimSpace(status) == "" {
		return "", nil
	}

	// Committer identity is passed inline so no global git config is needed.
	if out, err := git(dir,
		"-c", "user.name="+author.Name,
		"-c", "user.email="+author.Email,
		"commit", "--quiet", "-m", message,
	); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	rev, err := git(dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %s: %w", rev, err)
	}
	return strings.TrimSpace(rev), nil
}

// SnapshotIfRepo calls Snapshot when dir is a repository and returns ""
// otherwise.
func SnapshotIfRepo(dir, message string) (string, error) {
	if !IsRepo(dir) {
		return "", nil
	}
	return Snapshot(dir, message, DefaultAuthor)
}

func git(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}
