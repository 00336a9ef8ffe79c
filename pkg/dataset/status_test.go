// Copyright © 2024 Datatree Authors

package dataset

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/datatree/datatree/internal/rand"
	"github.com/datatree/datatree/pkg/dataset/status"
	"github.com/datatree/datatree/pkg/errors"
	"github.com/datatree/datatree/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusReportsAbsolutePaths(t *testing.T) {
	ds := testDataset(t)
	ctx := context.Background()
	writeFile(t, ds, "code.py", "print('hi')")

	results, err := ds.Status(ctx, StatusRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, res := range results {
		assert.True(t, filepath.IsAbs(res.Path), res.Path)
		assert.Equal(t, model.ActionStatus, res.Action)
		assert.Equal(t, ds.Path(), res.RefDS)
		assert.Equal(t, ds.Path(), res.ParentDS)
	}

	byPath := resultsByPath(results)
	loose, ok := byPath[ds.abs("code.py")]
	require.True(t, ok)
	assert.Equal(t, model.StateUntracked, loose.State)
	assert.Equal(t, model.TypeFile, loose.Type)

	cfg, ok := byPath[ds.abs(ConfigFile)]
	require.True(t, ok)
	assert.Equal(t, model.StateClean, cfg.State)
	assert.NotEmpty(t, cfg.GitSHA)
}

func TestStatusPathRestriction(t *testing.T) {
	ds := testDataset(t)
	ctx := context.Background()
	writeFile(t, ds, "a.txt", "a")
	writeFile(t, ds, "b.txt", "b")

	results, err := ds.Status(ctx, StatusRequest{
		Paths: []string{ds.abs("a.txt")},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ds.abs("a.txt"), results[0].Path)
}

func TestStatusOutsidePath(t *testing.T) {
	ds := testDataset(t)
	_, err := ds.Status(context.Background(), StatusRequest{
		Paths: []string{"../elsewhere"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrOutsideDataset))
}

func TestStatusRecursive(t *testing.T) {
	parent := testDataset(t)
	sub := addSubdataset(t, parent, "sub")
	ctx := context.Background()
	writeFile(t, sub, "inner.txt", "payload")

	flat, err := parent.Status(ctx, StatusRequest{})
	require.NoError(t, err)
	flatByPath := resultsByPath(flat)
	link, ok := flatByPath[parent.abs("sub")]
	require.True(t, ok)
	assert.Equal(t, model.TypeDataset, link.Type)
	assert.Equal(t, model.StateModified, link.State)
	_, ok = flatByPath[sub.abs("inner.txt")]
	assert.False(t, ok)

	deep, err := parent.Status(ctx, StatusRequest{Recursive: true})
	require.NoError(t, err)
	byPath := resultsByPath(deep)
	inner, ok := byPath[sub.abs("inner.txt")]
	require.True(t, ok)
	assert.Equal(t, model.StateUntracked, inner.State)
	assert.Equal(t, parent.Path(), inner.RefDS)
	assert.Equal(t, sub.Path(), inner.ParentDS)
}

func TestStatusRecursionLimit(t *testing.T) {
	parent := testDataset(t)
	sub := addSubdataset(t, parent, "sub")
	deep := addSubdataset(t, sub, "deep")
	ctx := context.Background()
	writeFile(t, deep, "x.txt", "x")

	capped, err := parent.Status(ctx, StatusRequest{
		Recursive:      true,
		RecursionLimit: 1,
	})
	require.NoError(t, err)
	cappedByPath := resultsByPath(capped)
	link, ok := cappedByPath[sub.abs("deep")]
	require.True(t, ok)
	assert.Equal(t, model.StateModified, link.State)
	_, ok = cappedByPath[deep.abs("x.txt")]
	assert.False(t, ok)

	unbounded, err := parent.Status(ctx, StatusRequest{Recursive: true})
	require.NoError(t, err)
	byPath := resultsByPath(unbounded)
	inner, ok := byPath[deep.abs("x.txt")]
	require.True(t, ok)
	assert.Equal(t, model.StateUntracked, inner.State)
	assert.Equal(t, deep.Path(), inner.ParentDS)
}

func TestStatusWithAnnexIdentity(t *testing.T) {
	skipNoAnnex(t)
	ctx := context.Background()

	ds, _, err := Create(ctx, CreateRequest{
		Path: filepath.Join(t.TempDir(), "annexed"),
	}, testOptions()...)
	require.NoError(t, err)
	defer func() {
		_ = ds.Close()
	}()

	writeFile(t, ds, "big.dat", rand.LetterString(2048))
	saveAll(t, ds, "add content")

	results, err := ds.Status(ctx, StatusRequest{Availability: true})
	require.NoError(t, err)
	byPath := resultsByPath(results)
	entry, ok := byPath[ds.abs("big.dat")]
	require.True(t, ok)
	assert.Equal(t, model.StateClean, entry.State)
	assert.Equal(t, model.TypeFile, entry.Type)
	assert.NotEmpty(t, entry.Key)
	assert.Equal(t, model.AvailabilityPresent, entry.Availability)
}
