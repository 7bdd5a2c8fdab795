// Package git
package git

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	giturls "github.com/whilp/git-urls"

	"plugfolio-deployer/internal/command"
	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

type Manager struct {
	log    logger.Logger
	branch string
}

func NewManager(log logger.Logger) *Manager {
	return &Manager{log: log}
}

// WithBranch makes Clone check out branch instead of the remote HEAD.
func (m *Manager) WithBranch(branch string) *Manager {
	m.branch = branch
	return m
}

// Clone makes a shallow clone of repoURL into destDir, which must not
// exist yet or be empty.
func (m *Manager) Clone(ctx context.Context, repoURL, destDir string) error {
	parent := filepath.Dir(destDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	args := []string{"clone", "--depth", "1"}
	if m.branch != "" {
		args = append(args, "--branch", m.branch)
	}
	args = append(args, repoURL, destDir)

	if _, err := m.runGitCommand(ctx, parent, args...); err != nil {
		return fmt.Errorf("git clone failed: %w", err)
	}

	m.log.Info("repository cloned", "repo", SafeURL(repoURL), "dest", destDir)
	return nil
}

func (m *Manager) GetCurrentCommit(ctx context.Context, repoDir string) (string, error) {
	if !m.IsGitRepo(repoDir) {
		return "", fmt.Errorf("%s is not a git repository", repoDir)
	}

	output, err := m.runGitCommand(ctx, repoDir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get commit hash: %w", err)
	}
	return strings.TrimSpace(output), nil
}

func (m *Manager) IsGitRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

func (m *Manager) IsGitInstalled() bool {
	if err := exec.Command("git", "--version").Run(); err != nil {
		m.log.Warn("git not found in PATH")
		return false
	}
	return true
}

func (m *Manager) runGitCommand(ctx context.Context, workDir string, args ...string) (string, error) {
	// never prompt for credentials; a private repo without credentials
	// must fail instead of hanging until the timeout.
	env := append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd := command.NewCommand(workDir, "git", args...).WithEnv(env)

	m.log.Debug("running git command", "cmd", redactArgs(cmd.String()), "dir", workDir)

	output, err := cmd.Run(ctx, func(line string, stream domain.LogStream, level domain.LogLevel) {
		m.log.Debug("git", "stream", stream, "level", level, "line", line)
	})
	if err != nil {
		m.log.Error("git command failed",
			"cmd", redactArgs(cmd.String()),
			"error", err,
			"output", output,
		)
		return output, fmt.Errorf("git command failed: %w", err)
	}

	return output, nil
}

// SafeURL returns repoURL with any password or token removed.
func SafeURL(repoURL string) string {
	u, err := giturls.Parse(repoURL)
	if err != nil {
		return fmt.Sprintf("<unparseable: %s>", repoURL)
	}
	if u.User != nil {
		u.User = url.User(u.User.Username())
	}
	return u.String()
}

func redactArgs(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		if strings.Contains(f, "://") {
			fields[i] = SafeURL(f)
		}
	}
	return strings.Join(fields, " ")
}
