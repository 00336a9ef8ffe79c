package dataset

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/datatree/datatree/pkg/dataset/status"
	"github.com/datatree/datatree/pkg/errors"
	"github.com/datatree/datatree/pkg/model"
	"github.com/datatree/datatree/pkg/repo"
	gogit "github.com/go-git/go-git/v5"
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

func testOptions() []Option {
	return []Option{WithRepoOptions(repo.WithEnv(testEnv...))}
}

func testDataset(t *testing.T) *Dataset {
	t.Helper()
	skipNoGit(t)
	ds, _, err := Create(context.Background(), CreateRequest{
		Path:    t.TempDir(),
		NoAnnex: true,
	}, testOptions()...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = ds.Close()
	})
	return ds
}

// addSubdataset creates and registers a nested dataset, leaving the
// parent clean.
func addSubdataset(t *testing.T, parent *Dataset, rel string) *Dataset {
	t.Helper()
	sub, _, err := Create(context.Background(), CreateRequest{
		Path:    filepath.Join(parent.Path(), rel),
		Parent:  parent,
		NoAnnex: true,
	}, testOptions()...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sub.Close()
	})
	return sub
}

func writeFile(t *testing.T, ds *Dataset, rel, content string) {
	t.Helper()
	abs := ds.abs(rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0600))
}

func saveAll(t *testing.T, ds *Dataset, msg string) {
	t.Helper()
	_, err := ds.Save(context.Background(), SaveRequest{Message: msg})
	require.NoError(t, err)
}

func resultsByPath(results []model.Result) map[string]model.Result {
	byPath := make(map[string]model.Result, len(results))
	for _, res := range results {
		byPath[res.Path] = res
	}
	return byPath
}

func findResult(t *testing.T, results []model.Result, action, path string) model.Result {
	t.Helper()
	for _, res := range results {
		if res.Action == action && res.Path == path {
			return res
		}
	}
	t.Fatalf("no %s result for %s", action, path)
	return model.Result{}
}

// headMessage reads the head commit message natively, without going
// through the handle under test.
func headMessage(t *testing.T, root string) string {
	t.Helper()
	gg, err := gogit.PlainOpen(root)
	require.NoError(t, err)
	head, err := gg.Head()
	require.NoError(t, err)
	commit, err := gg.CommitObject(head.Hash())
	require.NoError(t, err)
	return strings.TrimSpace(commit.Message)
}

func TestRequireNotADataset(t *testing.T) {
	skipNoGit(t)
	_, err := Require(t.TempDir(), testOptions()...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNoDataset))
}

func TestRequireReadsConfig(t *testing.T) {
	ds := testDataset(t)
	require.NotEmpty(t, ds.ID())

	again, err := Require(ds.Path(), testOptions()...)
	require.NoError(t, err)
	defer func() {
		_ = again.Close()
	}()
	assert.Equal(t, ds.ID(), again.ID())
	assert.Equal(t, ds.Path(), again.Path())
}

func TestRequireRepoWithoutConfig(t *testing.T) {
	skipNoGit(t)
	r, err := repo.Init(context.Background(), t.TempDir(), false, repo.WithEnv(testEnv...))
	require.NoError(t, err)
	root := r.Root()
	require.NoError(t, r.Close())

	ds, err := Require(root, testOptions()...)
	require.NoError(t, err)
	defer func() {
		_ = ds.Close()
	}()
	assert.Empty(t, ds.ID())
}

func TestFindWalksUpward(t *testing.T) {
	ds := testDataset(t)
	deep := ds.abs("a/b/c")
	require.NoError(t, os.MkdirAll(deep, 0755))

	found, err := Find(deep, testOptions()...)
	require.NoError(t, err)
	defer func() {
		_ = found.Close()
	}()
	assert.Equal(t, ds.Path(), found.Path())

	_, err = Find(t.TempDir(), testOptions()...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNoDataset))
}

func TestRelPaths(t *testing.T) {
	ds := testDataset(t)

	rels, err := ds.relPaths([]string{
		ds.abs("data/file.txt"),
		"plain.txt",
		ds.Path(),
	})
	require.NoError(t, err)
	// the root itself drops out, it means no restriction
	assert.Equal(t, []string{"data/file.txt", "plain.txt"}, rels)

	rels, err = ds.relPaths(nil)
	require.NoError(t, err)
	assert.Nil(t, rels)

	_, err = ds.relPaths([]string{filepath.Join(ds.Path(), "..", "elsewhere")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrOutsideDataset))

	_, err = ds.relPaths([]string{"../escape"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrOutsideDataset))
}

func TestRecursionDepthAccounting(t *testing.T) {
	assert.Equal(t, -1, startDepth(0))
	assert.Equal(t, -1, startDepth(-5))
	assert.Equal(t, 2, startDepth(2))

	assert.Equal(t, 1, nextDepth(2))
	assert.Equal(t, 0, nextDepth(1))
	assert.Equal(t, -1, nextDepth(-1))
}
