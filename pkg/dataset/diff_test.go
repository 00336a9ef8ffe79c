// Copyright © 2024 Datatree Authors

package dataset

import (
	"context"
	"testing"

	"github.com/datatree/datatree/pkg/errors"
	"github.com/datatree/datatree/pkg/model"
	repostatus "github.com/datatree/datatree/pkg/repo/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffWorktreeAgainstHead(t *testing.T) {
	ds := testDataset(t)
	ctx := context.Background()

	writeFile(t, ds, "a.txt", "one")
	saveAll(t, ds, "first")
	writeFile(t, ds, "a.txt", "changed")
	writeFile(t, ds, "loose.txt", "new")

	results, err := ds.Diff(ctx, DiffRequest{})
	require.NoError(t, err)
	byPath := resultsByPath(results)

	edited, ok := byPath[ds.abs("a.txt")]
	require.True(t, ok)
	assert.Equal(t, model.ActionDiff, edited.Action)
	assert.Equal(t, model.StateModified, edited.State)
	assert.NotEmpty(t, edited.PrevSHA)

	loose, ok := byPath[ds.abs("loose.txt")]
	require.True(t, ok)
	assert.Equal(t, model.StateUntracked, loose.State)
}

func TestDiffBetweenRevisions(t *testing.T) {
	ds := testDataset(t)
	ctx := context.Background()

	writeFile(t, ds, "a.txt", "one")
	saveAll(t, ds, "first")
	before, err := ds.Repo().HeadCommit(ctx)
	require.NoError(t, err)

	writeFile(t, ds, "a.txt", "two")
	writeFile(t, ds, "b.txt", "fresh")
	saveAll(t, ds, "second")
	after, err := ds.Repo().HeadCommit(ctx)
	require.NoError(t, err)

	results, err := ds.Diff(ctx, DiffRequest{From: before, To: after})
	require.NoError(t, err)
	byPath := resultsByPath(results)

	edited, ok := byPath[ds.abs("a.txt")]
	require.True(t, ok)
	assert.Equal(t, model.StateModified, edited.State)
	assert.NotEmpty(t, edited.GitSHA)
	assert.NotEmpty(t, edited.PrevSHA)
	assert.NotEqual(t, edited.GitSHA, edited.PrevSHA)

	added, ok := byPath[ds.abs("b.txt")]
	require.True(t, ok)
	assert.Equal(t, model.StateAdded, added.State)
}

func TestDiffInvalidRef(t *testing.T) {
	ds := testDataset(t)
	_, err := ds.Diff(context.Background(), DiffRequest{From: "no-such-ref"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repostatus.ErrInvalidRef))
}

func TestDiffRecursiveModifiedLink(t *testing.T) {
	parent := testDataset(t)
	sub := addSubdataset(t, parent, "sub")
	ctx := context.Background()

	writeFile(t, sub, "inner.txt", "payload")
	saveAll(t, sub, "nested change")

	results, err := parent.Diff(ctx, DiffRequest{Recursive: true})
	require.NoError(t, err)
	byPath := resultsByPath(results)

	link, ok := byPath[parent.abs("sub")]
	require.True(t, ok)
	assert.Equal(t, model.TypeDataset, link.Type)
	assert.Equal(t, model.StateModified, link.State)

	inner, ok := byPath[sub.abs("inner.txt")]
	require.True(t, ok)
	assert.Equal(t, model.StateAdded, inner.State)
	assert.Equal(t, parent.Path(), inner.RefDS)
	assert.Equal(t, sub.Path(), inner.ParentDS)
}

func TestDiffRecursiveAddedLink(t *testing.T) {
	parent := testDataset(t)
	ctx := context.Background()
	before, err := parent.Repo().HeadCommit(ctx)
	require.NoError(t, err)

	sub := addSubdataset(t, parent, "sub")

	results, err := parent.Diff(ctx, DiffRequest{From: before, Recursive: true})
	require.NoError(t, err)
	byPath := resultsByPath(results)

	link, ok := byPath[parent.abs("sub")]
	require.True(t, ok)
	assert.Equal(t, model.StateAdded, link.State)

	// the whole nested tree reports against the empty tree
	cfg, ok := byPath[sub.abs(ConfigFile)]
	require.True(t, ok)
	assert.Equal(t, model.StateAdded, cfg.State)
	assert.Equal(t, sub.Path(), cfg.ParentDS)
}

func TestDiffCleanLinkNotDescended(t *testing.T) {
	parent := testDataset(t)
	sub := addSubdataset(t, parent, "sub")
	ctx := context.Background()

	results, err := parent.Diff(ctx, DiffRequest{Recursive: true})
	require.NoError(t, err)
	byPath := resultsByPath(results)

	link, ok := byPath[parent.abs("sub")]
	require.True(t, ok)
	assert.Equal(t, model.StateClean, link.State)
	_, ok = byPath[sub.abs(ConfigFile)]
	assert.False(t, ok)
}
