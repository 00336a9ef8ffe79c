package repo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/datatree/datatree/pkg/errors"
	"github.com/datatree/datatree/pkg/model"
	"github.com/datatree/datatree/pkg/repo/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEnv = []string{
	"GIT_AUTHOR_NAME=datatree",
	"GIT_AUTHOR_EMAIL=datatree@example.com",
	"GIT_COMMITTER_NAME=datatree",
	"GIT_COMMITTER_EMAIL=datatree@example.com",
	"GIT_CONFIG_NOSYSTEM=1",
}

func skipNoGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not on PATH")
	}
}

func skipNoAnnex(t *testing.T) {
	t.Helper()
	skipNoGit(t)
	if _, err := exec.LookPath("git-annex"); err != nil {
		t.Skip("git-annex not on PATH")
	}
}

func testRepo(t *testing.T) *Repo {
	t.Helper()
	skipNoGit(t)
	r, err := Init(context.Background(), t.TempDir(), false, WithEnv(testEnv...))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = r.Close()
	})
	return r
}

func writeFile(t *testing.T, r *Repo, rel, content string) {
	t.Helper()
	abs := r.abs(rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0600))
}

func gitRun(t *testing.T, r *Repo, args ...string) string {
	t.Helper()
	out, err := r.run.Run(context.Background(), args...)
	require.NoError(t, err)
	return string(out)
}

// commitAll stages and commits everything, yielding the new head commit.
func commitAll(t *testing.T, r *Repo, msg string) string {
	t.Helper()
	gitRun(t, r, "add", "-A")
	gitRun(t, r, "commit", "-q", "-m", msg)
	head, err := r.HeadCommit(context.Background())
	require.NoError(t, err)
	return head
}

func TestIsValidRepo(t *testing.T) {
	skipNoGit(t)
	dir := t.TempDir()
	assert.False(t, IsValidRepo(dir))

	r := testRepo(t)
	assert.True(t, IsValidRepo(r.Root()))
}

func TestOpenNotARepo(t *testing.T) {
	skipNoGit(t)
	_, err := Open(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotARepo))
}

func TestInitOpensHandle(t *testing.T) {
	r := testRepo(t)
	assert.DirExists(t, filepath.Join(r.Root(), ".git"))
	assert.Equal(t, filepath.Join(r.Root(), ".git"), r.GitDir())
	assert.False(t, r.HasAnnex())
}

func TestHeadCommitUnborn(t *testing.T) {
	r := testRepo(t)
	_, err := r.HeadCommit(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNoHead))
}

func TestResolveRef(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	writeFile(t, r, "a.txt", "one")
	head := commitAll(t, r, "first")
	require.Len(t, head, 40)

	resolved, err := r.ResolveRef(ctx, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, head, resolved)

	_, err = r.ResolveRef(ctx, "no-such-ref")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrInvalidRef))
}

func TestTagResolves(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	writeFile(t, r, "a.txt", "one")
	head := commitAll(t, r, "first")

	require.NoError(t, r.Tag(ctx, "v1", "release one"))
	resolved, err := r.ResolveRef(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, head, resolved)

	require.NoError(t, r.Tag(ctx, "lightweight", ""))
	resolved, err = r.ResolveRef(ctx, "lightweight")
	require.NoError(t, err)
	assert.Equal(t, head, resolved)
}

func TestPathTypeProbing(t *testing.T) {
	r := testRepo(t)

	writeFile(t, r, "plain.txt", "content")
	require.NoError(t, os.MkdirAll(r.abs("somedir"), 0755))

	assert.Equal(t, model.TypeFile, r.pathType("plain.txt"))
	assert.Equal(t, model.TypeDirectory, r.pathType("somedir"))

	if err := os.Symlink("plain.txt", r.abs("ln")); err == nil {
		assert.Equal(t, model.TypeSymlink, r.pathType("ln"))
		assert.True(t, r.lexists("ln"))

		// dangling links still exist
		require.NoError(t, os.Symlink("nowhere", r.abs("dangling")))
		assert.True(t, r.lexists("dangling"))
	}
	assert.False(t, r.lexists("missing"))
}

func TestGitDirOfLinkedCheckout(t *testing.T) {
	r := testRepo(t)

	// a .git plain file pointing elsewhere still opens
	sub := filepath.Join(r.Root(), "sub")
	store := filepath.Join(r.Root(), "store")
	gitRun(t, r, "init", "-q", "--separate-git-dir", store, sub)
	require.True(t, IsValidRepo(sub))

	handle, err := Open(sub, WithEnv(testEnv...))
	require.NoError(t, err)
	defer func() {
		_ = handle.Close()
	}()
	fi, err := os.Stat(filepath.Join(sub, ".git"))
	require.NoError(t, err)
	assert.True(t, fi.Mode().IsRegular())
	assert.True(t, strings.HasSuffix(handle.GitDir(), "store"))
}
