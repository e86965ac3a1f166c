package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/plumbing/transport"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
	"github.com/go-git/go-git/v6/plumbing/transport/ssh"

	"github.com/indieinfra/inkwell/config"
)

// GitMirror maintains a working clone of the mirror repository in a temp
// directory and pushes one commit per mutation.
type GitMirror struct {
	cfg    *config.GitMirrorStrategy
	auth   transport.AuthMethod
	repo   *git.Repository
	tmpDir string
	mu     sync.Mutex
}

func NewGitMirror(cfg *config.GitMirrorStrategy) (*GitMirror, error) {
	auth, err := buildGitAuth(cfg)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "inkwell-*")
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainClone(tmpDir, &git.CloneOptions{
		URL:  cfg.Repository,
		Auth: auth,
	})
	if err != nil {
		return nil, err
	}

	return &GitMirror{
		cfg:    cfg,
		auth:   auth,
		repo:   repo,
		tmpDir: tmpDir,
	}, nil
}

func buildGitAuth(cfg *config.GitMirrorStrategy) (transport.AuthMethod, error) {
	switch cfg.Auth.Method {
	case "plain":
		return &http.BasicAuth{
			Username: cfg.Auth.Plain.Username,
			Password: cfg.Auth.Plain.Password,
		}, nil
	case "ssh":
		pubkeys, err := ssh.NewPublicKeysFromFile(cfg.Auth.Ssh.Username, cfg.Auth.Ssh.PrivateKeyFilePath, cfg.Auth.Ssh.Passphrase)

		if err != nil {
			return nil, fmt.Errorf("failed to prepare mirror git ssh authentication: %w", err)
		}

		return pubkeys, nil
	default:
		return nil, fmt.Errorf("invalid git authentication method %v", cfg.Auth.Method)
	}
}

func (gm *GitMirror) Publish(ctx context.Context, slug string, doc []byte, subject string) error {
	// Slugs contain slashes, so each post gets its own dated directory.
	relPath := filepath.Join(gm.cfg.Path, slug+".json")

	// Prevent races for filesystem access
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if err := gm.fetchRemote(ctx); err != nil {
		return err
	}

	fullPath := filepath.Join(gm.tmpDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create required directory structure: %w", err)
	}

	if err := os.WriteFile(fullPath, doc, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	wt, err := gm.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get new worktree: %w", err)
	}

	if _, err = wt.Add(relPath); err != nil {
		return fmt.Errorf("failed to add file to git: %w", err)
	}

	return gm.commitAndPush(ctx, wt, subject)
}

func (gm *GitMirror) Remove(ctx context.Context, slug string, subject string) error {
	relPath := filepath.Join(gm.cfg.Path, slug+".json")

	gm.mu.Lock()
	defer gm.mu.Unlock()

	if err := gm.fetchRemote(ctx); err != nil {
		return err
	}

	wt, err := gm.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get new worktree: %w", err)
	}

	if _, err := wt.Remove(relPath); err != nil {
		return fmt.Errorf("failed to remove file from git: %w", err)
	}

	return gm.commitAndPush(ctx, wt, subject)
}

// fetchRemote makes sure we are up to date, in case other sources have pushed.
func (gm *GitMirror) fetchRemote(ctx context.Context) error {
	err := gm.repo.FetchContext(ctx, &git.FetchOptions{Auth: gm.auth})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to update repo from remote: %w", err)
	}

	return nil
}

func (gm *GitMirror) commitAndPush(ctx context.Context, wt *git.Worktree, subject string) error {
	_, err := wt.Commit(subject, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "inkwell",
			Email: "inkwell@local",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create commit: %w", err)
	}

	if err := gm.repo.PushContext(ctx, &git.PushOptions{Auth: gm.auth}); err != nil {
		return fmt.Errorf("failed to push local: %w", err)
	}

	return nil
}
