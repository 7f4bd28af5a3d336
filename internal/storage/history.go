package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// HistoryService snapshots the data directory into a local git repository so
// every successful save is recoverable.
type HistoryService struct {
	repo   *git.Repository
	logger *slog.Logger
}

// NewHistoryService opens the git repository at dataDir, initializing one if
// none exists.
func NewHistoryService(dataDir string, logger *slog.Logger) (*HistoryService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	repo, err := git.PlainOpen(dataDir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(dataDir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history repository: %w", err)
	}
	return &HistoryService{repo: repo, logger: logger}, nil
}

// Commit records the current state of the data directory under the given
// message. A clean worktree is a no-op.
func (h *HistoryService) Commit(message string) error {
	wt, err := h.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}
	if status.IsClean() {
		return nil
	}
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "wraith",
			Email: "wraith@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	h.logger.Debug("recorded history snapshot", "commit", hash.String())
	return nil
}
