package annex

import (
	"path/filepath"
	"testing"

	"github.com/datatree/datatree/pkg/annex/status"
	"github.com/datatree/datatree/pkg/errors"
	"github.com/datatree/datatree/pkg/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey   = "MD5E-s3--acbd18db4cc2f85cedef654fccc4a4d8.dat"
	testLower = "f87/4d3/"
	testMixed = "Kv/J8/"
)

func testExt(t *testing.T) (*Ext, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	x := New(nil, filepath.Join("/repo", ".git"), WithFs(fs))
	return x, fs
}

func putObject(t *testing.T, fs afero.Fs, x *Ext, hashdir string) string {
	t.Helper()
	loc := filepath.Join(x.ObjDir(), filepath.FromSlash(hashdir), testKey, testKey)
	require.NoError(t, fs.MkdirAll(filepath.Dir(loc), 0755))
	require.NoError(t, afero.WriteFile(fs, loc, []byte("foo"), 0400))
	return loc
}

func TestDecodeFindRecord(t *testing.T) {
	line := `{"backend":"MD5E","bytesize":"3","error-messages":[],` +
		`"file":"data/f.dat","hashdirlower":"f87/4d3/","hashdirmixed":"Kv/J8/",` +
		`"humansize":"3 B","key":"` + testKey + `","keyname":"acbd18db4cc2f85cedef654fccc4a4d8.dat"}`

	rec, err := decodeFindRecord(line)
	require.NoError(t, err)
	assert.Equal(t, "data/f.dat", rec.File)
	assert.Equal(t, testKey, rec.Key)
	assert.Equal(t, "3", rec.Bytesize)
	assert.Equal(t, "f87/4d3/", rec.HashDirLower)
	assert.Equal(t, "Kv/J8/", rec.HashDirMixed)
}

func TestDecodeFindRecordRejectsPartial(t *testing.T) {
	_, err := decodeFindRecord(`{"file":"f.dat"}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrBadRecord))

	_, err = decodeFindRecord(`not json at all`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrBadRecord))
}

func TestMergeEnrichesSeed(t *testing.T) {
	x, _ := testExt(t)

	out := model.NewInfoMap()
	out.Set("f.dat", model.ContentInfo{Type: model.TypeSymlink, GitSHA: "abc"})

	x.merge(out, findRecord{
		File:         "f.dat",
		Key:          testKey,
		Bytesize:     "3",
		HashDirLower: testLower,
		HashDirMixed: testMixed,
	})

	info, ok := out.Get("f.dat")
	require.True(t, ok)
	assert.Equal(t, "abc", info.GitSHA, "seeded identity must survive the merge")
	assert.Equal(t, model.TypeSymlink, info.Type, "seeded type must survive the merge")
	assert.Equal(t, testKey, info.Key)
	assert.EqualValues(t, 3, info.Bytesize)
	assert.True(t, info.SizeKnown)
}

func TestMergeDefaultsType(t *testing.T) {
	x, _ := testExt(t)

	out := model.NewInfoMap()
	x.merge(out, findRecord{File: "fresh.dat", Key: testKey, Bytesize: "unknown"})

	info, _ := out.Get("fresh.dat")
	assert.Equal(t, model.TypeFile, info.Type)
	assert.False(t, info.SizeKnown)
}

func TestLocatePrefersMixed(t *testing.T) {
	x, fs := testExt(t)
	x.hashdirs[testKey] = hashDirs{mixed: testMixed, lower: testLower}

	lowerLoc := putObject(t, fs, x, testLower)
	mixedLoc := putObject(t, fs, x, testMixed)

	loc, ok := x.locate(testKey)
	require.True(t, ok)
	assert.Equal(t, mixedLoc, loc)
	assert.NotEqual(t, lowerLoc, loc)
}

func TestLocateFallsBackToLower(t *testing.T) {
	x, fs := testExt(t)
	x.hashdirs[testKey] = hashDirs{mixed: testMixed, lower: testLower}

	lowerLoc := putObject(t, fs, x, testLower)

	loc, ok := x.locate(testKey)
	require.True(t, ok)
	assert.Equal(t, lowerLoc, loc)
}

func TestLocateAbsent(t *testing.T) {
	x, _ := testExt(t)
	x.hashdirs[testKey] = hashDirs{mixed: testMixed, lower: testLower}

	_, ok := x.locate(testKey)
	assert.False(t, ok)

	_, ok = x.locate("KEY-never-reported")
	assert.False(t, ok)
}

func TestMarkAvailability(t *testing.T) {
	x, fs := testExt(t)
	x.hashdirs[testKey] = hashDirs{mixed: testMixed, lower: testLower}
	mixedLoc := putObject(t, fs, x, testMixed)

	info := model.NewInfoMap()
	info.Set("present.dat", model.ContentInfo{Type: model.TypeFile, Key: testKey})
	info.Set("dropped.dat", model.ContentInfo{Type: model.TypeFile, Key: "MD5E-s9--0000.dat"})
	info.Set("plain.txt", model.ContentInfo{Type: model.TypeFile, GitSHA: "abc"})

	x.MarkAvailability(info)

	present, _ := info.Get("present.dat")
	assert.Equal(t, model.AvailabilityPresent, present.Availability)
	assert.Equal(t, mixedLoc, present.ObjPath)

	dropped, _ := info.Get("dropped.dat")
	assert.Equal(t, model.AvailabilityAbsent, dropped.Availability)
	assert.Empty(t, dropped.ObjPath)

	plain, _ := info.Get("plain.txt")
	assert.Equal(t, model.AvailabilityUnknown, plain.Availability, "paths without keys are not probed")
}

func TestDetect(t *testing.T) {
	fs := afero.NewMemMapFs()
	gitDir := filepath.Join("/repo", ".git")
	assert.False(t, Detect(fs, gitDir))

	require.NoError(t, fs.MkdirAll(filepath.Join(gitDir, "annex"), 0755))
	assert.True(t, Detect(fs, gitDir))
}
