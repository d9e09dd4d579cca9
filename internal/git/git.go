// Package git resolves the source revision of a compiled model directory so that
// verification reports and history entries can be tied to a commit. It uses the
// go-git library and never shells out to the git CLI.
package git

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ShortHashLength is the number of hex digits of a shortened commit hash.
const ShortHashLength = 12

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

// logDebug logs a debug message if the debug logger is set.
func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// ErrNoCommits is returned for repositories without a HEAD commit.
var ErrNoCommits = errors.New("repository has no commits")

// openRepo opens the git repository containing path, walking up the directory
// tree to find it. If path is empty, the current working directory is used.
func openRepo(path string) (*git.Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return repo, nil
}

// Revision describes the checked out state of a repository.
type Revision struct {
	// Hash is the full HEAD commit hash.
	Hash string
	// Branch is the checked out branch, empty in detached HEAD state.
	Branch string
	// Dirty reports uncommitted changes in the worktree.
	Dirty bool
}

// Short returns the shortened hash with a "-dirty" suffix for modified worktrees.
func (r Revision) Short() string {
	hash := r.Hash
	if len(hash) > ShortHashLength {
		hash = hash[:ShortHashLength]
	}
	if r.Dirty {
		return hash + "-dirty"
	}
	return hash
}

// Describe returns the revision of the repository containing dir.
func Describe(dir string) (Revision, error) {
	repo, err := openRepo(dir)
	if err != nil {
		return Revision{}, err
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return Revision{}, ErrNoCommits
	}
	if err != nil {
		return Revision{}, fmt.Errorf("getting HEAD reference: %w", err)
	}

	rev := Revision{Hash: head.Hash().String()}
	if head.Name().IsBranch() {
		rev.Branch = head.Name().Short()
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return Revision{}, fmt.Errorf("getting worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return Revision{}, fmt.Errorf("getting worktree status: %w", err)
	}
	rev.Dirty = !status.IsClean()

	logDebug("[git] Describe %s: %s (branch %q, dirty %v)", dir, rev.Hash, rev.Branch, rev.Dirty)
	return rev, nil
}

// HeadRevision returns the short revision of the repository containing dir.
// It has the shape of a session revision resolver.
func HeadRevision(dir string) (string, error) {
	rev, err := Describe(dir)
	if err != nil {
		return "", err
	}
	return rev.Short(), nil
}

// GetRepositoryRoot returns the absolute path to the root of the repository containing dir.
func GetRepositoryRoot(dir string) (string, error) {
	repo, err := openRepo(dir)
	if err != nil {
		return "", err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	root := worktree.Filesystem.Root()
	logDebug("[git] GetRepositoryRoot: %s", root)
	return root, nil
}

// IsGitRepository checks if dir is within a git repository.
func IsGitRepository(dir string) bool {
	_, err := openRepo(dir)
	result := err == nil
	logDebug("[git] IsGitRepository: %v", result)
	return result
}
