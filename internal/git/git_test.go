package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a repository with one committed model.yaml and returns its
// directory and commit hash.
func initRepo(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.yaml"), []byte("module: orders\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("model.yaml")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, hash.String()
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	dir, hash := initRepo(t)

	rev, err := Describe(dir)
	require.NoError(t, err)
	assert.Equal(t, hash, rev.Hash)
	assert.Equal(t, "master", rev.Branch)
	assert.False(t, rev.Dirty)
	assert.Equal(t, hash[:ShortHashLength], rev.Short())
}

func TestDescribe_Subdirectory(t *testing.T) {
	t.Parallel()

	dir, hash := initRepo(t)
	sub := filepath.Join(dir, "build", "model")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	got, err := HeadRevision(sub)
	require.NoError(t, err)
	assert.Equal(t, hash[:ShortHashLength], got, "empty directories do not dirty the worktree")
}

func TestHeadRevision_Dirty(t *testing.T) {
	t.Parallel()

	dir, hash := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.yaml"), []byte("module: changed\n"), 0o644))

	got, err := HeadRevision(dir)
	require.NoError(t, err)
	assert.Equal(t, hash[:ShortHashLength]+"-dirty", got)
}

func TestDescribe_NoCommits(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	_, err = Describe(dir)
	assert.ErrorIs(t, err, ErrNoCommits)
}

func TestDescribe_NotARepository(t *testing.T) {
	t.Parallel()

	_, err := HeadRevision(t.TempDir())
	assert.ErrorContains(t, err, "opening repository")
	assert.False(t, IsGitRepository(t.TempDir()))
}

func TestGetRepositoryRoot(t *testing.T) {
	t.Parallel()

	dir, _ := initRepo(t)
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	root, err := GetRepositoryRoot(sub)
	require.NoError(t, err)
	assert.Equal(t, dir, root)
	assert.True(t, IsGitRepository(sub))
}

func TestRevision_Short(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		rev  Revision
		want string
	}{
		"full hash":  {rev: Revision{Hash: "0123456789abcdef0123"}, want: "0123456789ab"},
		"short hash": {rev: Revision{Hash: "abc"}, want: "abc"},
		"dirty":      {rev: Revision{Hash: "0123456789abcdef", Dirty: true}, want: "0123456789ab-dirty"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.rev.Short())
		})
	}
}
